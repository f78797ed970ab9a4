// Package database realizes catalog entries into verified local copies.
//
// A realized entry lives under <base>/<database>/<version>/<date>/, where
// <date> comes from the checksum manifest. Stable symlinks at
// <base>/<database>/<version>/<file> always resolve into the most recently
// realized dated directory, so consumers never see a half-fetched set.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"glade/pkg/catalog"
	"glade/pkg/history"
	"glade/pkg/integrity"
	"glade/pkg/logging"
	"glade/pkg/manifest"
)

// Fetcher is the transport used to reach the catalog URLs.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
	FetchToFile(ctx context.Context, url string, dest string) (int64, error)
}

// Recorder receives one event per Realize call.
type Recorder interface {
	Record(ctx context.Context, e history.Event) error
}

// Action describes what happened to one file during Realize.
type Action string

const (
	ActionDownloaded Action = "downloaded"
	ActionVerified   Action = "verified"
	ActionRepaired   Action = "repaired"
	// ActionPresent is an existing index or manifest, accepted without hashing.
	ActionPresent Action = "present"
	// ActionUnverified is an existing data file that could not be hashed.
	ActionUnverified Action = "unverified"
)

// FileResult reports the state of one logical file.
type FileResult struct {
	Name    string
	Path    string
	Pointer string
	Action  Action
	Bytes   int64
	Linked  bool
}

// Result reports a realized entry.
type Result struct {
	Database  string
	Version   string
	Root      string
	Dir       string
	DateToken string
	Digest    string
	Files     []FileResult
}

// Bytes is the total downloaded during the call.
func (r *Result) Bytes() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Bytes
	}
	return n
}

// Outcome summarizes the call for the history log.
func (r *Result) Outcome() history.Outcome {
	outcome := history.OutcomeVerified
	for _, f := range r.Files {
		switch f.Action {
		case ActionRepaired:
			return history.OutcomeRepaired
		case ActionDownloaded:
			outcome = history.OutcomeDownloaded
		}
	}
	return outcome
}

// Manager realizes catalog entries under a base directory.
// It assumes it is the only writer of that directory.
type Manager struct {
	baseDir  string
	catalog  *catalog.Catalog
	fetcher  Fetcher
	recorder Recorder
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder logs every Realize call to r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithClock replaces time.Now, which dates manifests without a date token.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New returns a Manager storing databases under baseDir, creating it if needed.
func New(baseDir string, cat *catalog.Catalog, fetcher Fetcher, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create base directory: %w", ErrIO, err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	m := &Manager{
		baseDir: abs,
		catalog: cat,
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// BaseDir returns the absolute storage root.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Catalog returns the catalog entries are resolved against.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// Root returns <base>/<database>/<version>, where the pointers live.
func (m *Manager) Root(database, version string) string {
	return filepath.Join(m.baseDir, database, version)
}

// Realize brings (database, version) to a verified local copy and points
// the stable symlinks at it.
func (m *Manager) Realize(ctx context.Context, database, version string) (*Result, error) {
	entry, err := m.catalog.Lookup(database, version)
	if err != nil {
		return nil, err
	}
	start := m.now()
	res, err := m.realize(ctx, entry)
	m.record(ctx, entry, res, err, start)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RealizeAll realizes every catalog entry in order, stopping at the first
// failure. Results of the entries realized before it are returned with it.
func (m *Manager) RealizeAll(ctx context.Context) ([]*Result, error) {
	var results []*Result
	for _, e := range m.catalog.Entries() {
		res, err := m.Realize(ctx, e.Database, e.Version)
		if err != nil {
			return results, fmt.Errorf("%s/%s: %w", e.Database, e.Version, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (m *Manager) realize(ctx context.Context, entry catalog.Entry) (*Result, error) {
	logger := logging.GetLogger(ctx).With("database", entry.Database, "version", entry.Version)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info("fetching manifest", "url", entry.Manifest)
	text, err := m.fetcher.FetchText(ctx, entry.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to download manifest: %w", err)
	}
	rec, err := manifest.Parse(text, m.now())
	if err != nil {
		return nil, err
	}
	logger.Debug("manifest parsed", "digest", rec.Digest, "date", rec.DateToken)

	root := m.Root(entry.Database, entry.Version)
	dir := filepath.Join(root, rec.DateToken)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %w", ErrIO, err)
	}

	res := &Result{
		Database:  entry.Database,
		Version:   entry.Version,
		Root:      root,
		Dir:       dir,
		DateToken: rec.DateToken,
		Digest:    rec.Digest,
	}
	for i, url := range entry.URLs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := catalog.FileName(url)
		if err != nil {
			return nil, err
		}
		fr, err := m.settle(ctx, url, filepath.Join(dir, name), i == 0, rec.Digest)
		if err != nil {
			return nil, err
		}
		fr.Name = name
		fr.Pointer = filepath.Join(root, name)
		fr.Linked, err = ensurePointer(ctx, fr.Path, fr.Pointer)
		if err != nil {
			return nil, fmt.Errorf("failed to update pointer for %s: %w", name, err)
		}
		res.Files = append(res.Files, fr)
	}

	logger.Info("database ready", "location", root, "date", rec.DateToken)
	return res, nil
}

// settle makes target present. Only the data file is checked against digest.
func (m *Manager) settle(ctx context.Context, url, target string, isData bool, digest string) (FileResult, error) {
	logger := logging.GetLogger(ctx)
	name := filepath.Base(target)
	fr := FileResult{Path: target}

	_, err := os.Stat(target)
	switch {
	case err == nil && !isData:
		logger.Info("already exists", "file", name)
		fr.Action = ActionPresent

	case err == nil:
		logger.Info("already exists, verifying checksum", "file", name)
		ok, verr := integrity.Verify(target, digest)
		switch {
		case verr != nil:
			// Cannot confirm either way; keep the file.
			logger.Warn("could not verify", "file", name, "error", verr)
			fr.Action = ActionUnverified
		case ok:
			logger.Info("checksum valid", "file", name)
			fr.Action = ActionVerified
		default:
			logger.Warn("invalid checksum, downloading again", "file", name, "expected", digest)
			if err := os.Remove(target); err != nil {
				return fr, fmt.Errorf("%w: failed to remove stale %s: %w", ErrIO, name, err)
			}
			n, err := m.download(ctx, url, target, digest)
			if err != nil {
				return fr, err
			}
			fr.Action = ActionRepaired
			fr.Bytes = n
		}

	case os.IsNotExist(err):
		expected := ""
		if isData {
			expected = digest
		}
		n, err := m.download(ctx, url, target, expected)
		if err != nil {
			return fr, err
		}
		fr.Action = ActionDownloaded
		fr.Bytes = n

	default:
		return fr, fmt.Errorf("%w: failed to inspect %s: %w", ErrIO, target, err)
	}
	return fr, nil
}

// download fetches url into target and, when expected is set, deletes the
// file and fails with ErrIntegrity if its digest differs.
func (m *Manager) download(ctx context.Context, url, target, expected string) (int64, error) {
	logger := logging.GetLogger(ctx)
	name := filepath.Base(target)

	logger.Info("downloading", "file", name, "url", url)
	n, err := m.fetcher.FetchToFile(ctx, url, target)
	if err != nil {
		// A partial file would be taken for a complete one on the next run.
		if rmErr := os.Remove(target); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("failed to remove partial download", "file", name, "error", rmErr)
		}
		return n, fmt.Errorf("failed to download %s: %w", name, err)
	}
	logger.Info("download complete", "file", name, "bytes", n)

	if expected == "" {
		return n, nil
	}
	ok, err := integrity.Verify(target, expected)
	if err != nil {
		logger.Warn("could not verify", "file", name, "error", err)
		return n, nil
	}
	if !ok {
		if err := os.Remove(target); err != nil {
			logger.Warn("failed to remove corrupt download", "file", name, "error", err)
		}
		return n, fmt.Errorf("%w: downloaded %s does not match expected digest %s", ErrIntegrity, name, expected)
	}
	logger.Info("checksum valid", "file", name)
	return n, nil
}

func (m *Manager) record(ctx context.Context, entry catalog.Entry, res *Result, runErr error, start time.Time) {
	if m.recorder == nil {
		return
	}
	e := history.Event{
		Database:  entry.Database,
		Version:   entry.Version,
		StartedAt: start,
		Duration:  m.now().Sub(start),
	}
	if runErr != nil {
		e.Outcome = history.OutcomeFailed
		e.Error = runErr.Error()
	} else {
		e.Outcome = res.Outcome()
		e.DateToken = res.DateToken
		e.Digest = res.Digest
		e.Bytes = res.Bytes()
	}
	// Record even when ctx was cancelled mid-run.
	if err := m.recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		logging.GetLogger(ctx).Warn("failed to record history", "error", err)
	}
}
