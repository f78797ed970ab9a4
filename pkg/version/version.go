package version

import (
	_ "embed"
	"runtime"
	"strings"
)

//go:embed version.txt
var versionFile string

// Version returns the current glade version
func Version() string {
	return strings.TrimSpace(versionFile)
}

// UserAgent is sent with every HTTP request, e.g. "glade/0.3.0 (linux/amd64)".
func UserAgent() string {
	return "glade/" + Version() + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
