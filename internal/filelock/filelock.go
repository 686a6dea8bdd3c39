// Package filelock guards mutating scans against concurrent fmtcheck runs
// and provides the atomic rewrite primitive used by the fixers.
package filelock

import (
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ScanLock is an exclusive advisory lock keyed to a scan root. Two fix or
// update-copyright runs over the same tree contend on the same lock file;
// check runs take no lock.
type ScanLock struct {
	flock *flock.Flock
	path  string
}

// ForRoot creates the lock for a scan root. The lock file lives in the
// system temp directory, keyed by the absolute root path, so it is never
// visited by the scan itself.
func ForRoot(root string) (*ScanLock, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	h := fnv.New64a()
	h.Write([]byte(abs))
	path := filepath.Join(os.TempDir(), fmt.Sprintf("fmtcheck-%016x.lock", h.Sum64()))

	return &ScanLock{flock: flock.New(path), path: path}, nil
}

// TryLock attempts to acquire the lock without blocking. It returns false
// when another process holds it.
func (l *ScanLock) TryLock() (bool, error) {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (l *ScanLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file location, for diagnostics.
func (l *ScanLock) Path() string {
	return l.path
}

// AtomicWrite replaces the content of path using a temp file and rename, so
// an interrupted rewrite never leaves a truncated file behind. perm is
// applied to the new file; pass the original file's mode to preserve it.
func AtomicWrite(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".fmtcheck-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(perm.Perm()); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	// rename succeeded, nothing to clean up
	tmp = nil
	return nil
}
