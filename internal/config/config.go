// Package config holds the fully-resolved fmtcheck configuration.
//
// Precedence is defaults, then config file, then CLI flags; the merging of
// flags happens in the command layer, which only ever hands a resolved
// Config to the scanning core.
package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/harrison/fmtcheck/internal/logger"
	"gopkg.in/yaml.v3"
)

// Eol names a line terminator convention.
type Eol string

// Supported end-of-line conventions.
const (
	EolNative Eol = "NATIVE"
	EolUnix   Eol = "UNIX"
	EolWin    Eol = "WIN"
)

// ParseEol validates an end-of-line name (case-insensitive).
func ParseEol(name string) (Eol, error) {
	switch Eol(strings.ToUpper(strings.TrimSpace(name))) {
	case EolNative:
		return EolNative, nil
	case EolUnix:
		return EolUnix, nil
	case EolWin:
		return EolWin, nil
	}
	return "", fmt.Errorf("invalid end of line name %q (expected NATIVE, UNIX or WIN)", name)
}

// UnmarshalYAML parses and normalizes an end-of-line name, so a config file
// with an unknown name fails at load time.
func (e *Eol) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseEol(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Terminator returns the literal line terminator for the convention.
// NATIVE resolves per operating system.
func (e Eol) Terminator() string {
	switch e {
	case EolWin:
		return "\r\n"
	case EolUnix:
		return "\n"
	case EolNative:
		if runtime.GOOS == "windows" {
			return "\r\n"
		}
		return "\n"
	}
	return "\n"
}

// BackupSuffix is appended to the original file name when a backup is
// requested before an in-place rewrite.
const BackupSuffix = ".bak"

// ClangFormat holds the external formatter setting: empty means disabled,
// anything else is the executable to invoke. A YAML boolean is also
// accepted, with true meaning the default executable name.
type ClangFormat string

// DefaultClangFormatExe is the executable used when clang_format is enabled
// as a boolean rather than a path.
const DefaultClangFormatExe = "clang-format"

// UnmarshalYAML accepts either a boolean or an executable path string.
func (c *ClangFormat) UnmarshalYAML(value *yaml.Node) error {
	var b bool
	if err := value.Decode(&b); err == nil {
		if b {
			*c = DefaultClangFormatExe
		} else {
			*c = ""
		}
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("clang_format must be a boolean or an executable path: %w", err)
	}
	*c = ClangFormat(s)
	return nil
}

// Enabled reports whether the external formatter is configured.
func (c ClangFormat) Enabled() bool { return c != "" }

// Executable returns the formatter executable to invoke.
func (c ClangFormat) Executable() string { return string(c) }

// CheckConfig configures the check rule pipeline.
type CheckConfig struct {
	Failfast        bool        `yaml:"failfast"`
	Tabs            bool        `yaml:"check_tabs"`
	Eol             bool        `yaml:"check_eol"`
	Trailing        bool        `yaml:"check_trailing"`
	Encoding        bool        `yaml:"check_encoding"`
	EolAtEof        bool        `yaml:"check_eol_at_eof"`
	RelativeInclude bool        `yaml:"check_relative_include"`
	Copyright       bool        `yaml:"check_copyright"`
	Mode            bool        `yaml:"check_mode"`
	ClangFormat     ClangFormat `yaml:"clang_format"`
	MaxLineLen      int         `yaml:"maxlinelen"`
	EolKind         Eol         `yaml:"eol"`
	EncodingName    string      `yaml:"encoding"`
}

// FixConfig configures the fix pipeline.
type FixConfig struct {
	TabSize     int         `yaml:"tabsize"`
	EolKind     Eol         `yaml:"eol"`
	Trailing    bool        `yaml:"fix_trailing"`
	Eof         bool        `yaml:"fix_eof"`
	Mode        bool        `yaml:"fix_mode"`
	ClangFormat ClangFormat `yaml:"clang_format"`
	Backup      bool        `yaml:"backup"`
}

// CopyrightConfig configures the update-copyright tool.
type CopyrightConfig struct {
	TemplatePath string `yaml:"copyright_template_path"`
	Update       bool   `yaml:"update"`
	Year         int    `yaml:"year"`
	Backup       bool   `yaml:"backup"`
}

// LoggingConfig configures console logging.
type LoggingConfig struct {
	LogLevel string `yaml:"loglevel"`
}

// Config is the complete fmtcheck configuration.
type Config struct {
	// PathPatterns selects which file names are processed. Empty means
	// every name.
	PathPatterns []string `yaml:"path_patterns"`
	// SkipPathPatterns excludes matching path segments, files and
	// directories alike. Empty means nothing is excluded.
	SkipPathPatterns []string `yaml:"skip_path_patterns"`
	// SkipDataPatterns excludes files whose content matches any of the
	// regular expressions. Empty means nothing is excluded.
	SkipDataPatterns []string `yaml:"skip_data_patterns"`

	Check     CheckConfig     `yaml:"check"`
	Fix       FixConfig       `yaml:"fix"`
	Copyright CopyrightConfig `yaml:"update-copyright"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DefaultConfig returns the built-in configuration: C/C++, cmake, shell and
// XML sources, hidden entries skipped, the whitespace and encoding checks
// enabled.
func DefaultConfig() *Config {
	return &Config{
		PathPatterns: []string{
			"*.[ch]", "*.[ch]pp", "*.[ch]xx",
			"*.txt", "*.cmake",
			"*.sh", "*.bash", "*.bat",
			"*.xsd", "*.xml",
		},
		SkipPathPatterns: []string{".*"},
		SkipDataPatterns: nil,
		Check: CheckConfig{
			Failfast:        false,
			Tabs:            true,
			Eol:             true,
			Trailing:        true,
			Encoding:        true,
			EolAtEof:        true,
			RelativeInclude: false,
			Copyright:       false,
			Mode:            false,
			ClangFormat:     "",
			MaxLineLen:      0,
			EolKind:         EolNative,
			EncodingName:    "ascii",
		},
		Fix: FixConfig{
			TabSize:     4,
			EolKind:     EolNative,
			Trailing:    true,
			Eof:         true,
			Mode:        false,
			ClangFormat: "",
			Backup:      false,
		},
		Copyright: CopyrightConfig{
			TemplatePath: "",
			Update:       true,
			Year:         time.Now().Year(),
			Backup:       false,
		},
		Logging: LoggingConfig{
			LogLevel: "warn",
		},
	}
}

// LoadConfig reads a YAML configuration file over the defaults. Keys absent
// from the file keep their default values; a malformed file or a missing
// path is an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Dump writes the configuration as YAML. Feeding the output of Dump back
// through LoadConfig reproduces the same configuration.
func (c *Config) Dump(w io.Writer) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyPatternOverrides replaces the pattern lists with CLI-supplied values.
// noSkip clears the skip-path list entirely.
func (c *Config) ApplyPatternOverrides(patterns, skip []string, noSkip bool) {
	if len(patterns) > 0 {
		c.PathPatterns = patterns
	}
	if len(skip) > 0 {
		c.SkipPathPatterns = skip
	}
	if noSkip {
		c.SkipPathPatterns = nil
	}
}

// knownEncodings are the text encodings the encoding check understands.
var knownEncodings = map[string]bool{
	"ascii":      true,
	"us-ascii":   true,
	"utf-8":      true,
	"utf8":       true,
	"latin-1":    true,
	"iso-8859-1": true,
}

// IsKnownEncoding reports whether name is a supported text encoding.
func IsKnownEncoding(name string) bool {
	return knownEncodings[strings.ToLower(strings.TrimSpace(name))]
}

// Validate checks enum values and numeric ranges. It runs before any file
// is touched; any error here is fatal at startup.
func (c *Config) Validate() error {
	if _, err := ParseEol(string(c.Check.EolKind)); err != nil {
		return fmt.Errorf("check section: %w", err)
	}
	if _, err := ParseEol(string(c.Fix.EolKind)); err != nil {
		return fmt.Errorf("fix section: %w", err)
	}
	if !IsKnownEncoding(c.Check.EncodingName) {
		return fmt.Errorf("check section: unknown encoding %q", c.Check.EncodingName)
	}
	if c.Check.MaxLineLen < 0 {
		return fmt.Errorf("check section: maxlinelen must be >= 0, got %d", c.Check.MaxLineLen)
	}
	if c.Fix.TabSize < 0 {
		return fmt.Errorf("fix section: tabsize must be >= 0, got %d", c.Fix.TabSize)
	}
	if c.Copyright.Year < 0 {
		return fmt.Errorf("update-copyright section: year must be >= 0, got %d", c.Copyright.Year)
	}
	if !logger.IsValidLevel(c.Logging.LogLevel) {
		return fmt.Errorf("logging section: invalid loglevel %q, must be one of: %s",
			c.Logging.LogLevel, strings.Join(logger.ValidLevels, ", "))
	}
	return nil
}
