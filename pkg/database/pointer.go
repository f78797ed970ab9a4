package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"glade/pkg/logging"
)

// ensurePointer makes pointer a symlink to target unless a regular file
// already sits at pointer. It reports whether the link was (re)written.
func ensurePointer(ctx context.Context, target, pointer string) (bool, error) {
	logger := logging.GetLogger(ctx)
	rel, err := filepath.Rel(filepath.Dir(pointer), target)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIO, err)
	}

	fi, err := os.Lstat(pointer)
	switch {
	case err == nil && fi.Mode()&os.ModeSymlink == 0:
		logger.Warn("not replacing regular file with a pointer", "path", pointer)
		return false, nil
	case err == nil:
		if current, err := os.Readlink(pointer); err == nil && current == rel {
			if _, err := os.Stat(pointer); err == nil {
				logger.Debug("pointer up to date", "path", pointer, "target", rel)
				return false, nil
			}
		}
	case !os.IsNotExist(err):
		return false, fmt.Errorf("%w: failed to inspect %s: %w", ErrIO, pointer, err)
	}

	if err := replaceSymlink(rel, pointer); err != nil {
		return false, err
	}
	logger.Info("updated pointer", "path", pointer, "target", rel)
	return true, nil
}

// replaceSymlink points link at target in one rename, so readers see
// either the old or the new target and never a missing link.
func replaceSymlink(target, link string) error {
	var suffix [6]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	tmp := filepath.Join(filepath.Dir(link), "."+filepath.Base(link)+"."+hex.EncodeToString(suffix[:])+".tmp")
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("%w: failed to create symlink: %w", ErrIO, err)
	}
	if err := os.Rename(tmp, link); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: failed to replace %s: %w", ErrIO, link, err)
	}
	return nil
}

// resolvePointer returns the dated directory name a pointer currently targets.
func resolvePointer(pointer string) (string, bool) {
	rel, err := os.Readlink(pointer)
	if err != nil {
		return "", false
	}
	if filepath.IsAbs(rel) {
		rel, err = filepath.Rel(filepath.Dir(pointer), rel)
		if err != nil {
			return "", false
		}
	}
	dir := filepath.Dir(rel)
	if dir == "." || dir == ".." {
		return "", false
	}
	return filepath.Base(dir), true
}
