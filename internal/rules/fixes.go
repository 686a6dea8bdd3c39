package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/harrison/fmtcheck/internal/clangformat"
	"github.com/harrison/fmtcheck/internal/config"
	"github.com/harrison/fmtcheck/internal/filelock"
	"github.com/harrison/fmtcheck/internal/logger"
	"github.com/harrison/fmtcheck/internal/walker"
)

// trimRe strips spaces and tabs at end of line.
var trimRe = regexp.MustCompile(`[ \t]+$`)

// FixTool rewrites files to repair formatting problems. Fixers run in a
// fixed order: end-of-file normalization, trailing-whitespace trimming, tab
// expansion, then the external formatter; the executable bit is cleared on
// the filesystem after the content rewrite. All output uses the configured
// line terminator, which is how EOL consistency is repaired.
type FixTool struct {
	cfg       config.FixConfig
	formatter clangformat.Formatter
	log       *logger.ConsoleLogger
	eol       string
}

// NewFixTool builds the fix pipeline for cfg. formatter may be nil when the
// clang-format fixer is disabled.
func NewFixTool(cfg config.FixConfig, formatter clangformat.Formatter, log *logger.ConsoleLogger) (*FixTool, error) {
	if log == nil {
		log = logger.New(nil, "")
	}
	if cfg.ClangFormat.Enabled() && formatter == nil {
		return nil, fmt.Errorf("clang-format fixer enabled but no formatter supplied")
	}
	return &FixTool{
		cfg:       cfg,
		formatter: formatter,
		log:       log,
		eol:       cfg.EolKind.Terminator(),
	}, nil
}

// FixData applies the content fixers to one file. pathHint carries the
// original path for the external formatter. The result always uses the
// configured terminator regardless of the input convention.
func (t *FixTool) FixData(pathHint string, data []byte) ([]byte, error) {
	text := string(data)

	// normalize the input to bare newlines; the configured terminator is
	// applied on output
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	// EOF normalization first, so the line fixers below see content that
	// ends cleanly
	if t.cfg.Eof {
		text = strings.TrimRight(text, " \t\n") + "\n"
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if t.cfg.Trailing {
			line = trimRe.ReplaceAllString(line, "")
		}
		if t.cfg.TabSize > 0 {
			line = strings.ReplaceAll(line, "\t", strings.Repeat(" ", t.cfg.TabSize))
		}
		lines[i] = line
	}

	out := []byte(strings.Join(lines, t.eol))

	if t.cfg.ClangFormat.Enabled() {
		formatted, err := t.formatter.Format(pathHint, out)
		if err != nil {
			return nil, fmt.Errorf("clang-format failed on %s: %w", pathHint, err)
		}
		out = formatted
	}

	return out, nil
}

// FixFile reads, fixes and rewrites one file in place. With backup enabled
// the original is moved aside first; a failed backup aborts the fix. Any
// write error is fatal for the command.
func (t *FixTool) FixFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to access %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	return t.fixEntry(walker.Entry{
		Name: path,
		Path: path,
		Mode: info.Mode(),
	}, data)
}

// fixEntry runs the pipeline over already-read content and performs the
// backup, rewrite and permission steps.
func (t *FixTool) fixEntry(entry walker.Entry, data []byte) error {
	fixed, err := t.FixData(entry.Path, data)
	if err != nil {
		return err
	}

	clearMode := t.cfg.Mode && entry.Mode.Perm()&0o111 != 0

	if string(fixed) == string(data) && !clearMode {
		t.log.Debugf("%s: already clean", entry.Path)
		return nil
	}

	if t.cfg.Backup {
		backup := entry.Path + config.BackupSuffix
		// the move must complete before the rewrite begins
		if err := os.Rename(entry.Path, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", entry.Path, err)
		}
		t.log.Debugf("backed up %s to %s", entry.Path, backup)
	}

	perm := entry.Mode.Perm()
	if err := filelock.AtomicWrite(entry.Path, fixed, perm); err != nil {
		return err
	}
	t.log.Infof("fixed %s", entry.Path)

	if clearMode {
		if err := os.Chmod(entry.Path, perm&^0o111); err != nil {
			return fmt.Errorf("failed to change mode of %s: %w", entry.Path, err)
		}
	}
	return nil
}

// Scan fixes every qualifying file under root. root may be a directory or
// a single file.
func (t *FixTool) Scan(root string, opts walker.Options) error {
	return walker.Walk(root, opts, t.fixEntry)
}
