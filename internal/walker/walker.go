// Package walker enumerates the files of a source tree that qualify for
// checking or fixing.
//
// A walk is depth-first and single-pass: every qualifying file is handed to
// the visit callback exactly once, with its full content. Pattern
// configuration is inherited unchanged down the tree; a skipped directory is
// never descended into.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/harrison/fmtcheck/internal/config"
	"github.com/harrison/fmtcheck/internal/logger"
	"github.com/harrison/fmtcheck/internal/pattern"
)

// Mode selects how file content is treated during the walk.
type Mode int

const (
	// Binary yields raw bytes unconditionally.
	Binary Mode = iota
	// Text requires content to be valid UTF-8; undecodable files are
	// excluded with a scan warning.
	Text
)

// Entry describes a filesystem node being visited. Entries are read-only
// and live only for the duration of one callback.
type Entry struct {
	// Name is the bare file name.
	Name string
	// Path is the path from the walk root to the file.
	Path string
	// Symlink is true when the directory entry itself is a symbolic link.
	Symlink bool
	// Mode holds the permission bits of the (dereferenced) file.
	Mode fs.FileMode
}

// VisitFunc receives each qualifying file with its content. Returning an
// error aborts the walk.
type VisitFunc func(entry Entry, data []byte) error

// Options carries the compiled matchers and content mode for one walk.
type Options struct {
	Mode     Mode
	Include  *pattern.NameMatcher
	SkipName *pattern.NameMatcher
	SkipData *pattern.ContentMatcher
	Log      *logger.ConsoleLogger
}

// NewOptions compiles the pattern lists of cfg into walk options. Pattern
// compilation errors are configuration errors and surface here, before any
// file is touched.
func NewOptions(cfg *config.Config, mode Mode, log *logger.ConsoleLogger) (Options, error) {
	include, err := pattern.NewNameMatcher(cfg.PathPatterns)
	if err != nil {
		return Options{}, err
	}
	skipName, err := pattern.NewSkipNameMatcher(cfg.SkipPathPatterns)
	if err != nil {
		return Options{}, err
	}
	skipData, err := pattern.NewContentMatcher(cfg.SkipDataPatterns)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Mode:     mode,
		Include:  include,
		SkipName: skipName,
		SkipData: skipData,
		Log:      log,
	}, nil
}

// Walk enumerates root, which may be a directory or a single regular file,
// and calls visit for every file that passes the name, skip and content
// rules. A single-file root goes through the same pattern rules as a
// directory member.
func Walk(root string, opts Options, visit VisitFunc) error {
	if opts.Log == nil {
		opts.Log = logger.New(nil, "")
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to access %s: %w", root, err)
	}

	if !info.IsDir() {
		return visitCandidate(root, filepath.Base(root), false, opts, visit)
	}
	return walkDir(root, opts, visit)
}

// walkDir scans the immediate children of dir, pruning skipped names before
// classification and recursing into subdirectories with the same options.
func walkDir(dir string, opts Options, visit VisitFunc) error {
	opts.Log.Debugf("scanning %q", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	for _, d := range entries {
		path := filepath.Join(dir, d.Name())

		if opts.SkipName.Match(d.Name()) {
			opts.Log.Debugf("skipping %q", path)
			continue
		}

		symlink := d.Type()&fs.ModeSymlink != 0
		isDir := d.IsDir()
		if symlink {
			// follow the link to classify the target, matching
			// scandir semantics
			target, err := os.Stat(path)
			if err != nil {
				opts.Log.Warnf("unable to stat %q: %v", path, err)
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			if err := walkDir(path, opts, visit); err != nil {
				return err
			}
			continue
		}

		if err := visitCandidate(path, d.Name(), symlink, opts, visit); err != nil {
			return err
		}
	}
	return nil
}

// visitCandidate applies the include and content rules to one file and
// yields it when it qualifies.
func visitCandidate(path, name string, symlink bool, opts Options, visit VisitFunc) error {
	if opts.SkipName.Match(name) {
		opts.Log.Debugf("skipping %q", path)
		return nil
	}
	if !opts.Include.Match(name) {
		opts.Log.Debugf("skipping %q", path)
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		opts.Log.Warnf("unable to stat %q: %v", path, err)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// scan-level warning, not a check failure
		opts.Log.Warnf("unable to read %q: %v", path, err)
		return nil
	}

	if opts.Mode == Text && !utf8.Valid(data) {
		opts.Log.Warnf("unable to decode %q: content is not valid UTF-8", path)
		return nil
	}

	if opts.SkipData.Match(data) {
		opts.Log.Debugf("skipping %q", path)
		return nil
	}

	return visit(Entry{
		Name:    name,
		Path:    path,
		Symlink: symlink,
		Mode:    info.Mode(),
	}, data)
}
