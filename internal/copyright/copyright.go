// Package copyright updates copyright statements in source files: existing
// year ranges are extended to a configured year, and files with no
// statement at all can have a template prepended.
package copyright

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/harrison/fmtcheck/internal/config"
	"github.com/harrison/fmtcheck/internal/filelock"
	"github.com/harrison/fmtcheck/internal/logger"
	"github.com/harrison/fmtcheck/internal/walker"
)

// statementRe detects the presence of any copyright statement.
var statementRe = regexp.MustCompile(`(?:(?i:copyright)|\([cC]\))\s*(?:\([cC]\)\s*)?[0-9]{4}`)

// rangeRe captures a simple year range for rewriting: prefix, first year,
// optional last year. Richer year lists are handled by the continuation
// check in Apply.
var rangeRe = regexp.MustCompile(`((?i:copyright)\s*(?:\([cC]\)\s*)?)([0-9]{4})(\s*[-,]\s*([0-9]{4}))?`)

// continuationRe matches further year tokens after a captured range. A
// statement with such a tail is a richer list than "first plus optional
// last" and is left alone.
var continuationRe = regexp.MustCompile(`^\s*[-,]\s*[0-9]{4}`)

// TemplateYearPlaceholder is substituted with the configured year when
// prepending a template.
const TemplateYearPlaceholder = "{year}"

// Tool rewrites copyright statements according to a CopyrightConfig.
type Tool struct {
	cfg      config.CopyrightConfig
	template string
	log      *logger.ConsoleLogger
}

// NewTool builds the copyright tool, loading the statement template when
// one is configured.
func NewTool(cfg config.CopyrightConfig, log *logger.ConsoleLogger) (*Tool, error) {
	if log == nil {
		log = logger.New(nil, "")
	}

	t := &Tool{cfg: cfg, log: log}

	if cfg.TemplatePath != "" {
		data, err := os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read copyright template: %w", err)
		}
		t.template = string(data)
	}
	return t, nil
}

// Apply transforms one file's text: with updating enabled, every simple
// "Copyright [(C)] first[-last]" range whose first year differs from the
// configured year becomes "Copyright first-<year>"; with a template
// configured and no statement present, the template is prepended. The
// second return value reports whether the text changed.
func (t *Tool) Apply(text string) (string, bool) {
	out := text

	if t.cfg.Update {
		out = t.updateRanges(out)
	}

	if t.template != "" && !statementRe.MatchString(out) {
		header := strings.ReplaceAll(t.template, TemplateYearPlaceholder, strconv.Itoa(t.cfg.Year))
		out = header + out
	}

	return out, out != text
}

// updateRanges rewrites every matching year range in text (global
// substitution). Matches whose first year equals the configured year, and
// year lists richer than a simple range, are left untouched.
func (t *Tool) updateRanges(text string) string {
	year := strconv.Itoa(t.cfg.Year)

	matches := rangeRe.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		prefix := text[m[2]:m[3]]
		first := text[m[4]:m[5]]

		b.WriteString(text[last:start])
		last = end

		// a further year token makes this a richer list than the
		// simple range grammar covers
		if continuationRe.MatchString(text[end:]) || first == year {
			b.WriteString(text[start:end])
			continue
		}

		b.WriteString(prefix)
		b.WriteString(first)
		b.WriteString("-")
		b.WriteString(year)
	}
	b.WriteString(text[last:])

	return b.String()
}

// applyEntry rewrites one file when Apply changes its text, honoring the
// backup setting.
func (t *Tool) applyEntry(entry walker.Entry, data []byte) error {
	out, changed := t.Apply(string(data))
	if !changed {
		t.log.Debugf("%s: no copyright change", entry.Path)
		return nil
	}

	if t.cfg.Backup {
		backup := entry.Path + config.BackupSuffix
		if err := os.Rename(entry.Path, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", entry.Path, err)
		}
	}

	if err := filelock.AtomicWrite(entry.Path, []byte(out), entry.Mode.Perm()); err != nil {
		return err
	}
	t.log.Infof("updated copyright in %s", entry.Path)
	return nil
}

// Scan updates every qualifying file under root. root may be a directory
// or a single file.
func (t *Tool) Scan(root string, opts walker.Options) error {
	return walker.Walk(root, opts, t.applyEntry)
}
