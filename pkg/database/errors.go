package database

import (
	"errors"

	"glade/pkg/catalog"
	"glade/pkg/fetch"
	"glade/pkg/integrity"
	"glade/pkg/manifest"
)

// Error kinds returned by Manager. Use errors.Is to match them.
var (
	ErrNotFound       = catalog.ErrNotFound
	ErrTransport      = fetch.ErrTransport
	ErrManifestFormat = manifest.ErrFormat
	ErrIO             = integrity.ErrIO
	// ErrIntegrity means a freshly downloaded data file did not match the manifest.
	ErrIntegrity = errors.New("integrity check failed")
)
