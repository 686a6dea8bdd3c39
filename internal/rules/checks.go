// Package rules implements the per-file check and fix pipelines.
//
// A check is a named predicate over one file's raw bytes (plus its stat
// metadata for the mode rule); a fix is a content transformation. Checks
// run in a fixed registration order so failfast behavior and reports are
// deterministic. Rules are independent of each other.
package rules

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/harrison/fmtcheck/internal/clangformat"
	"github.com/harrison/fmtcheck/internal/config"
	"github.com/harrison/fmtcheck/internal/logger"
	"github.com/harrison/fmtcheck/internal/walker"
)

// copyrightRe matches a copyright statement: the word "copyright"
// (case-insensitive) or a literal "(C)", followed by a 4-digit year.
var copyrightRe = regexp.MustCompile(`(?:(?i:copyright)|\([cC]\))\s*(?:\([cC]\)\s*)?[0-9]{4}`)

// relativeIncludeRe matches C/C++ include directives whose path starts with
// "..". A textual heuristic, not a preprocessor.
var relativeIncludeRe = regexp.MustCompile(`#\s*include\s*["<]\s*\.\.`)

// clangFormatExts is the fixed extension set the clang-format check applies
// to, regardless of the general include patterns.
var clangFormatExts = map[string]bool{
	".c": true, ".h": true,
	".cc": true, ".hh": true,
	".cpp": true, ".hpp": true,
	".cxx": true, ".hxx": true,
}

// checkFunc reports whether the rule fails for one file.
type checkFunc func(entry walker.Entry, data []byte) bool

// checkRule is one named, enabled entry of the check pipeline.
type checkRule struct {
	name string
	fn   checkFunc
}

// CheckTool evaluates the enabled check rules over files and source trees.
type CheckTool struct {
	cfg       config.CheckConfig
	formatter clangformat.Formatter
	log       *logger.ConsoleLogger
	rules     []checkRule
	eol       string
}

// NewCheckTool builds the check pipeline for cfg. formatter may be nil when
// the clang-format check is disabled; when enabled it must already have
// been probed by the caller.
func NewCheckTool(cfg config.CheckConfig, formatter clangformat.Formatter, log *logger.ConsoleLogger) (*CheckTool, error) {
	if log == nil {
		log = logger.New(nil, "")
	}

	t := &CheckTool{
		cfg:       cfg,
		formatter: formatter,
		log:       log,
		eol:       cfg.EolKind.Terminator(),
	}

	if cfg.ClangFormat.Enabled() && formatter == nil {
		return nil, fmt.Errorf("clang-format check enabled but no formatter supplied")
	}

	if err := t.buildChecklist(); err != nil {
		return nil, err
	}
	return t, nil
}

// buildChecklist registers the enabled rules in their fixed order.
func (t *CheckTool) buildChecklist() error {
	t.rules = nil

	if t.cfg.Tabs {
		t.register("tabs", func(_ walker.Entry, data []byte) bool {
			return bytes.IndexByte(data, '\t') >= 0
		})
	}

	if t.cfg.Eol {
		switch t.eol {
		case "\n":
			t.register("invalid EOL", func(_ walker.Entry, data []byte) bool {
				return bytes.Contains(data, []byte("\r\n"))
			})
		case "\r\n":
			t.register("invalid EOL", func(_ walker.Entry, data []byte) bool {
				return hasBareLF(data)
			})
		default:
			return fmt.Errorf("unexpected end of line: %q", t.eol)
		}
	}

	if t.cfg.Trailing {
		trailingRe := regexp.MustCompile(`[ \t]` + regexp.QuoteMeta(t.eol))
		t.register("trailing spaces", func(_ walker.Entry, data []byte) bool {
			return trailingRe.Match(data)
		})
	}

	if t.cfg.Encoding {
		name := "not " + t.cfg.EncodingName
		t.register(name, t.encodingChecker)
	}

	if t.cfg.EolAtEof {
		t.register("no eol at eof", func(_ walker.Entry, data []byte) bool {
			return missingFinalEol(data, t.eol)
		})
	}

	if t.cfg.RelativeInclude {
		t.register("relative include", func(_ walker.Entry, data []byte) bool {
			return relativeIncludeRe.Match(data)
		})
	}

	if t.cfg.Copyright {
		t.register("no copyright", func(_ walker.Entry, data []byte) bool {
			return !copyrightRe.Match(data)
		})
	}

	if t.cfg.Mode {
		t.register("invalid mode", func(entry walker.Entry, _ []byte) bool {
			return entry.Mode.Perm()&0o111 != 0
		})
	}

	if t.cfg.MaxLineLen > 0 {
		t.register("line too long", t.lineLengthChecker)
	}

	if t.cfg.ClangFormat.Enabled() {
		t.register("clang-format", t.clangFormatChecker)
	}

	return nil
}

func (t *CheckTool) register(name string, fn checkFunc) {
	t.rules = append(t.rules, checkRule{name: name, fn: fn})
}

// RuleNames returns the enabled rule names in evaluation order, for report
// rendering.
func (t *CheckTool) RuleNames() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.name
	}
	return names
}

// hasBareLF reports a '\n' not preceded by '\r'. RE2 has no lookbehind, so
// this is a plain byte scan.
func hasBareLF(data []byte) bool {
	for i, b := range data {
		if b == '\n' && (i == 0 || data[i-1] != '\r') {
			return true
		}
	}
	return false
}

// missingFinalEol reports content that does not end with the terminator:
// either no terminator occurs at all, or something other than whitespace
// follows the last one.
func missingFinalEol(data []byte, eol string) bool {
	idx := bytes.LastIndex(data, []byte(eol))
	if idx < 0 {
		return true
	}
	rest := data[idx+len(eol):]
	return len(bytes.TrimSpace(rest)) > 0
}

// encodingChecker reports any line that does not decode under the
// configured encoding.
func (t *CheckTool) encodingChecker(_ walker.Entry, data []byte) bool {
	lineno := 0
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		lineno++
		if !decodable(line, t.cfg.EncodingName) {
			t.log.Infof("unable to decode line n. %d: %q", lineno, line)
			return true
		}
	}
	return false
}

// decodable reports whether line decodes under the named encoding.
func decodable(line []byte, encoding string) bool {
	switch strings.ToLower(encoding) {
	case "ascii", "us-ascii":
		for _, b := range line {
			if b > 0x7f {
				return false
			}
		}
		return true
	case "utf-8", "utf8":
		return utf8.Valid(line)
	default:
		// latin-1 family: every byte sequence decodes
		return true
	}
}

// lineLengthChecker reports any line longer than the configured maximum,
// counting characters rather than bytes.
func (t *CheckTool) lineLengthChecker(_ walker.Entry, data []byte) bool {
	for _, line := range bytes.Split(data, []byte(t.eol)) {
		if utf8.RuneCount(line) > t.cfg.MaxLineLen {
			return true
		}
	}
	return false
}

// clangFormatChecker pipes the file through the external formatter and
// fails on any byte difference or tool error. Only the fixed C/C++
// extension set is checked.
func (t *CheckTool) clangFormatChecker(entry walker.Entry, data []byte) bool {
	if !clangFormatExts[strings.ToLower(filepath.Ext(entry.Name))] {
		return false
	}

	formatted, err := t.formatter.Format(entry.Path, data)
	if err != nil {
		t.log.Warnf("clang-format failed on %q: %v", entry.Path, err)
		return true
	}
	return !bytes.Equal(data, formatted)
}

// CheckData evaluates the enabled rules against one file's content in
// registration order. With failfast, evaluation stops at the first failing
// rule, recording only that one failure.
func (t *CheckTool) CheckData(entry walker.Entry, data []byte) *Stats {
	stats := NewStats()

	for _, rule := range t.rules {
		if rule.fn(entry, data) {
			stats.Add(rule.name)
			t.log.Infof("%s: %s", entry.Path, rule.name)
			if t.cfg.Failfast {
				return stats
			}
		}
	}
	return stats
}

// Scan checks every qualifying file under root and returns the merged
// counts. root may be a directory or a single file.
func (t *CheckTool) Scan(root string, opts walker.Options) (*Stats, error) {
	stats := NewStats()

	err := walker.Walk(root, opts, func(entry walker.Entry, data []byte) error {
		stats.Update(t.CheckData(entry, data))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
