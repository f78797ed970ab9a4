package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"glade/pkg/catalog"
	"glade/pkg/integrity"
	"glade/pkg/logging"
	"glade/pkg/manifest"
)

// Status is the local state of one catalog entry.
type Status struct {
	catalog.Entry
	Root       string
	Downloaded bool
	// DateToken is the dated directory the data pointer resolves to, if any
	DateToken string
	DataSize  int64
}

// List reports, for every catalog entry, whether it has a local directory.
func (m *Manager) List() ([]Status, error) {
	var out []Status
	for _, e := range m.catalog.Entries() {
		st := Status{Entry: e, Root: m.Root(e.Database, e.Version)}
		if fi, err := os.Stat(st.Root); err == nil && fi.IsDir() {
			st.Downloaded = true
		} else if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		if st.Downloaded {
			name, err := catalog.FileName(e.Data)
			if err != nil {
				return nil, err
			}
			pointer := filepath.Join(st.Root, name)
			st.DateToken, _ = resolvePointer(pointer)
			if fi, err := os.Stat(pointer); err == nil {
				st.DataSize = fi.Size()
			}
		}
		out = append(out, st)
	}
	return out, nil
}

// CheckResult is the outcome of re-verifying a realized entry offline.
type CheckResult struct {
	Database  string
	Version   string
	DateToken string
	Path      string
	Expected  string
	Actual    string
	Valid     bool
}

// Check re-hashes the current data file against the manifest stored next
// to it. It never touches the network or modifies files.
func (m *Manager) Check(ctx context.Context, database, version string) (*CheckResult, error) {
	entry, err := m.catalog.Lookup(database, version)
	if err != nil {
		return nil, err
	}
	dataName, err := catalog.FileName(entry.Data)
	if err != nil {
		return nil, err
	}
	manifestName, err := catalog.FileName(entry.Manifest)
	if err != nil {
		return nil, err
	}

	root := m.Root(database, version)
	token, ok := resolvePointer(filepath.Join(root, dataName))
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s has not been downloaded", ErrNotFound, database, version)
	}
	dir := filepath.Join(root, token)

	text, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read manifest: %w", ErrIO, err)
	}
	rec, err := manifest.Parse(string(text), m.now())
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, dataName)
	logging.GetLogger(ctx).Debug("checking", "path", path, "expected", rec.Digest)
	actual, err := integrity.Digest(path)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		Database:  database,
		Version:   version,
		DateToken: token,
		Path:      path,
		Expected:  rec.Digest,
		Actual:    actual,
		Valid:     actual == rec.Digest,
	}, nil
}
