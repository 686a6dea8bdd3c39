package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harrison/fmtcheck/internal/clangformat"
	"github.com/harrison/fmtcheck/internal/config"
	"github.com/harrison/fmtcheck/internal/walker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFormatter implements clangformat.Formatter for tests.
type fakeFormatter struct {
	output []byte
	err    error
}

func (f *fakeFormatter) Probe() error { return nil }

func (f *fakeFormatter) Format(pathHint string, data []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return data, nil
}

// unixCheckConfig returns a check configuration with the whitespace checks
// enabled against the UNIX convention.
func unixCheckConfig() config.CheckConfig {
	cfg := config.DefaultConfig().Check
	cfg.EolKind = config.EolUnix
	return cfg
}

func newTool(t *testing.T, cfg config.CheckConfig) *CheckTool {
	t.Helper()
	tool, err := NewCheckTool(cfg, nil, nil)
	require.NoError(t, err)
	return tool
}

func checkBytes(t *testing.T, cfg config.CheckConfig, data []byte) *Stats {
	t.Helper()
	tool := newTool(t, cfg)
	return tool.CheckData(walker.Entry{Name: "test.c", Path: "test.c", Mode: 0o644}, data)
}

func TestCheckTabs(t *testing.T) {
	cfg := unixCheckConfig()

	stats := checkBytes(t, cfg, []byte("a\tb\n"))
	assert.Equal(t, 1, stats.Count("tabs"))

	stats = checkBytes(t, cfg, []byte("a b\n"))
	assert.Equal(t, 0, stats.Count("tabs"))
}

func TestCheckInvalidEolUnix(t *testing.T) {
	cfg := unixCheckConfig()

	stats := checkBytes(t, cfg, []byte("a\r\nb\n"))
	assert.Equal(t, 1, stats.Count("invalid EOL"))

	stats = checkBytes(t, cfg, []byte("a\nb\n"))
	assert.Equal(t, 0, stats.Count("invalid EOL"))
}

func TestCheckInvalidEolWin(t *testing.T) {
	cfg := unixCheckConfig()
	cfg.EolKind = config.EolWin

	// every \n must be preceded by \r
	stats := checkBytes(t, cfg, []byte("a\r\nb\n"))
	assert.Equal(t, 1, stats.Count("invalid EOL"))

	stats = checkBytes(t, cfg, []byte("a\r\nb\r\n"))
	assert.Equal(t, 0, stats.Count("invalid EOL"))

	stats = checkBytes(t, cfg, []byte("\nrest\r\n"))
	assert.Equal(t, 1, stats.Count("invalid EOL"), "leading bare LF")
}

func TestCheckTrailingSpaces(t *testing.T) {
	cfg := unixCheckConfig()

	stats := checkBytes(t, cfg, []byte("a \nb\n"))
	assert.Equal(t, 1, stats.Count("trailing spaces"))

	stats = checkBytes(t, cfg, []byte("a\tb\nno trailing\n"))
	assert.Equal(t, 0, stats.Count("trailing spaces"))
}

func TestCheckEncoding(t *testing.T) {
	cfg := unixCheckConfig()

	stats := checkBytes(t, cfg, []byte("caf\xc3\xa9\n"))
	assert.Equal(t, 1, stats.Count("not ascii"))

	stats = checkBytes(t, cfg, []byte("plain ascii\n"))
	assert.Equal(t, 0, stats.Count("not ascii"))

	cfg.EncodingName = "utf-8"
	stats = checkBytes(t, cfg, []byte("caf\xc3\xa9\n"))
	assert.Equal(t, 0, stats.Count("not utf-8"))

	stats = checkBytes(t, cfg, []byte{'b', 0xff, 'd', '\n'})
	assert.Equal(t, 1, stats.Count("not utf-8"))
}

func TestCheckEolAtEof(t *testing.T) {
	cfg := unixCheckConfig()

	tests := []struct {
		name string
		data string
		want int
	}{
		{"clean ending", "a\nb\n", 0},
		{"missing terminator", "a\nb", 1},
		{"no terminator at all", "abc", 1},
		{"empty content", "", 1},
		{"whitespace after terminator", "a\n  ", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := checkBytes(t, cfg, []byte(tt.data))
			assert.Equal(t, tt.want, stats.Count("no eol at eof"))
		})
	}
}

func TestCheckRelativeInclude(t *testing.T) {
	cfg := unixCheckConfig()
	cfg.RelativeInclude = true

	stats := checkBytes(t, cfg, []byte("#include \"../private.h\"\n"))
	assert.Equal(t, 1, stats.Count("relative include"))

	stats = checkBytes(t, cfg, []byte("# include <../deep/header.h>\n"))
	assert.Equal(t, 1, stats.Count("relative include"))

	stats = checkBytes(t, cfg, []byte("#include <stdio.h>\n#include \"local.h\"\n"))
	assert.Equal(t, 0, stats.Count("relative include"))
}

func TestCheckCopyright(t *testing.T) {
	cfg := unixCheckConfig()
	cfg.Copyright = true

	// lowercase word plus a 4-digit year is a statement
	stats := checkBytes(t, cfg, []byte("// copyright 2020\nint x;\n"))
	assert.Equal(t, 0, stats.Count("no copyright"))

	stats = checkBytes(t, cfg, []byte("// Copyright (C) 1998 Example Corp\nint x;\n"))
	assert.Equal(t, 0, stats.Count("no copyright"))

	stats = checkBytes(t, cfg, []byte("(C) 2021 Example Corp\n"))
	assert.Equal(t, 0, stats.Count("no copyright"))

	stats = checkBytes(t, cfg, []byte("int x;\n"))
	assert.Equal(t, 1, stats.Count("no copyright"))

	// the word alone, with no year, is not a statement
	stats = checkBytes(t, cfg, []byte("// copyright pending\n"))
	assert.Equal(t, 1, stats.Count("no copyright"))
}

func TestCheckMode(t *testing.T) {
	cfg := unixCheckConfig()
	cfg.Mode = true
	tool := newTool(t, cfg)

	stats := tool.CheckData(walker.Entry{Name: "a.c", Path: "a.c", Mode: 0o755}, []byte("x\n"))
	assert.Equal(t, 1, stats.Count("invalid mode"))

	stats = tool.CheckData(walker.Entry{Name: "a.c", Path: "a.c", Mode: 0o644}, []byte("x\n"))
	assert.Equal(t, 0, stats.Count("invalid mode"))
}

func TestCheckLineLength(t *testing.T) {
	cfg := unixCheckConfig()
	cfg.MaxLineLen = 10

	stats := checkBytes(t, cfg, []byte("short\nthis line is far too long\n"))
	assert.Equal(t, 1, stats.Count("line too long"))

	stats = checkBytes(t, cfg, []byte("short\nlines\n"))
	assert.Equal(t, 0, stats.Count("line too long"))

	// inactive when no maximum is configured
	cfg.MaxLineLen = 0
	tool := newTool(t, cfg)
	assert.NotContains(t, tool.RuleNames(), "line too long")
}

func TestCheckClangFormat(t *testing.T) {
	cfg := unixCheckConfig()
	cfg.ClangFormat = "clang-format"

	clean := []byte("int main() { return 0; }\n")

	tool, err := NewCheckTool(cfg, &fakeFormatter{}, nil)
	require.NoError(t, err)
	stats := tool.CheckData(walker.Entry{Name: "a.c", Path: "a.c", Mode: 0o644}, clean)
	assert.Equal(t, 0, stats.Count("clang-format"))

	// any byte difference is a failure
	tool, err = NewCheckTool(cfg, &fakeFormatter{output: []byte("int main() {\n  return 0;\n}\n")}, nil)
	require.NoError(t, err)
	stats = tool.CheckData(walker.Entry{Name: "a.c", Path: "a.c", Mode: 0o644}, clean)
	assert.Equal(t, 1, stats.Count("clang-format"))

	// a failing tool run is a failure too
	tool, err = NewCheckTool(cfg, &fakeFormatter{err: errors.New("exit status 1")}, nil)
	require.NoError(t, err)
	stats = tool.CheckData(walker.Entry{Name: "a.c", Path: "a.c", Mode: 0o644}, clean)
	assert.Equal(t, 1, stats.Count("clang-format"))

	// restricted to the C/C++ extension set
	tool, err = NewCheckTool(cfg, &fakeFormatter{output: []byte("different")}, nil)
	require.NoError(t, err)
	stats = tool.CheckData(walker.Entry{Name: "run.sh", Path: "run.sh", Mode: 0o644}, clean)
	assert.Equal(t, 0, stats.Count("clang-format"))
}

func TestCheckClangFormatRequiresFormatter(t *testing.T) {
	cfg := unixCheckConfig()
	cfg.ClangFormat = "clang-format"

	_, err := NewCheckTool(cfg, nil, nil)
	assert.Error(t, err)
}

// TestCheckFailfast verifies a file violating two enabled rules records
// exactly one failure.
func TestCheckFailfast(t *testing.T) {
	cfg := unixCheckConfig()
	cfg.Failfast = true

	// tab plus trailing space: two violations, one recorded
	stats := checkBytes(t, cfg, []byte("a\tb \nend\n"))
	assert.Equal(t, 1, stats.Total())
	assert.Equal(t, 1, stats.Count("tabs"))

	cfg.Failfast = false
	stats = checkBytes(t, cfg, []byte("a\tb \nend\n"))
	assert.Equal(t, 2, stats.Total())
}

func TestCheckRuleOrderAndToggles(t *testing.T) {
	cfg := unixCheckConfig()
	tool := newTool(t, cfg)
	assert.Equal(t,
		[]string{"tabs", "invalid EOL", "trailing spaces", "not ascii", "no eol at eof"},
		tool.RuleNames())

	cfg.Tabs = false
	cfg.Encoding = false
	tool = newTool(t, cfg)
	assert.Equal(t,
		[]string{"invalid EOL", "trailing spaces", "no eol at eof"},
		tool.RuleNames())
}

func TestCheckScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tabbed.c", []byte("a\tb\n"))
	writeFile(t, root, "clean.c", []byte("ok\n"))
	writeFile(t, root, "trailing.c", []byte("x \n"))

	cfg := config.DefaultConfig()
	cfg.Check.EolKind = config.EolUnix

	tool := newTool(t, cfg.Check)
	opts := walkOptions(t, cfg, walker.Binary)

	stats, err := tool.Scan(root, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count("tabs"))
	assert.Equal(t, 1, stats.Count("trailing spaces"))
	assert.False(t, stats.Empty())
}

func TestCheckCleanScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "clean.c", []byte("int x;\n"))

	cfg := config.DefaultConfig()
	cfg.Check.EolKind = config.EolUnix

	tool := newTool(t, cfg.Check)
	stats, err := tool.Scan(root, walkOptions(t, cfg, walker.Binary))
	require.NoError(t, err)
	assert.True(t, stats.Empty())
}

func TestHasBareLF(t *testing.T) {
	assert.False(t, hasBareLF([]byte("a\r\nb\r\n")))
	assert.True(t, hasBareLF([]byte("a\nb\r\n")))
	assert.True(t, hasBareLF([]byte("\n")))
	assert.False(t, hasBareLF(nil))
}

func TestMissingFinalEol(t *testing.T) {
	assert.False(t, missingFinalEol([]byte("a\n"), "\n"))
	assert.True(t, missingFinalEol([]byte("a"), "\n"))
	assert.True(t, missingFinalEol(nil, "\n"))
	assert.False(t, missingFinalEol([]byte("a\r\n"), "\r\n"))
	assert.True(t, missingFinalEol([]byte("a\r\nb"), "\r\n"))
}

var _ clangformat.Formatter = (*fakeFormatter)(nil)

// writeFile creates one file under root.
func writeFile(t *testing.T, root, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// walkOptions compiles the walk options for a scan configuration.
func walkOptions(t *testing.T, cfg *config.Config, mode walker.Mode) walker.Options {
	t.Helper()
	opts, err := walker.NewOptions(cfg, mode, nil)
	require.NoError(t, err)
	return opts
}
