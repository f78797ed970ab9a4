// Package integrity computes and checks content digests of local files.
package integrity

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrIO marks a filesystem fault while reading a file to hash it.
var ErrIO = errors.New("i/o error")

const chunkSize = 8192

// Digest returns the lowercase hex MD5 of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s for hashing: %w", ErrIO, path, err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: failed to read %s for hashing: %w", ErrIO, path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether the digest of path is exactly expected.
func Verify(path string, expected string) (bool, error) {
	actual, err := Digest(path)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
