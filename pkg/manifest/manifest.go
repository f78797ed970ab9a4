package manifest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrFormat is returned when manifest text does not hold a digest and a filename.
var ErrFormat = errors.New("invalid manifest format")

// DateLayout is the layout of a date token (YYYYMMDD).
const DateLayout = "20060102"

// Record is the parsed content of a checksum manifest.
type Record struct {
	// Digest is the expected hex digest of the data file
	Digest string
	// DateToken is always 8 ASCII digits
	DateToken string
}

// Parse extracts the expected digest and the date token from manifest text.
// The text is expected to start with "<digest> <path>", anything after the
// second token is ignored. When the path carries no date token, now is used.
func Parse(text string, now time.Time) (Record, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return Record{}, fmt.Errorf("%w: expected \"<digest> <path>\", got %d token(s)", ErrFormat, len(fields))
	}

	token, ok := DateToken(fields[1])
	if !ok {
		token = now.Format(DateLayout)
	}
	return Record{
		Digest:    fields[0],
		DateToken: token,
	}, nil
}

// DateToken finds the date token in the final segment of path.
// The segment is split on "_" and the first part starting with 8 digits wins.
func DateToken(path string) (string, bool) {
	name := path[strings.LastIndex(path, "/")+1:]
	if !strings.Contains(name, "_") {
		return "", false
	}
	for _, part := range strings.Split(name, "_") {
		if len(part) >= 8 && isDigits(part[:8]) {
			return part[:8], true
		}
	}
	return "", false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
