package cmd

import (
	"fmt"
	"strings"

	"github.com/harrison/fmtcheck/internal/clangformat"
	"github.com/harrison/fmtcheck/internal/config"
	"github.com/harrison/fmtcheck/internal/rules"
	"github.com/harrison/fmtcheck/internal/walker"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check the conformity of source code to basic standards",
		Long: `Check the conformity of source code to basic standards: end of line
(EOL) consistency, trailing spaces, presence of tabs, conformity to the
ASCII encoding, line length.

By default the program prints how many files fail the check, for each of
the selected checks. Paths default to the current directory.`,
		RunE: runCheck,
	}

	cmd.Flags().BoolP("quiet", "q", false, "suppress standard output, only errors are printed")
	cmd.Flags().Bool("no-tabs", false, "disable checks on the presence of tabs")
	cmd.Flags().Bool("no-eol", false, "disable checks on EOL consistency")
	cmd.Flags().Bool("no-trailing", false, "disable checks on trailing spaces")
	cmd.Flags().Bool("no-encoding", false, "disable checks on text encoding")
	cmd.Flags().Bool("no-eol-at-eof", false, "disable checks on the terminator at end of file")
	cmd.Flags().Bool("relative-include", false, "enable checks on parent-relative #include directives")
	cmd.Flags().Bool("copyright", false, "enable checks on the presence of a copyright statement")
	cmd.Flags().Bool("mode", false, "enable checks on the executable permission bits")
	cmd.Flags().String("clang-format", "", "enable the clang-format conformance check, optionally naming the executable")
	cmd.Flags().Lookup("clang-format").NoOptDefVal = config.DefaultClangFormatExe
	cmd.Flags().IntP("line-length", "l", 0, "set the maximum line length; 0 (the default) disables the check")
	cmd.Flags().BoolP("failfast", "f", false, "stop evaluating further rules for a file as soon as one fails")
	cmd.Flags().String("eol", "", "end of line convention to validate against (NATIVE, UNIX or WIN)")
	cmd.Flags().String("encoding", "", "text encoding the content must conform to")

	return cmd
}

// mergeCheckFlags folds the check command flags into the configuration.
// Flags override the config file, which overrides the defaults.
func mergeCheckFlags(cmd *cobra.Command, cfg *config.Config) error {
	flagToggles := []struct {
		flag   string
		target *bool
		value  bool
	}{
		{"no-tabs", &cfg.Check.Tabs, false},
		{"no-eol", &cfg.Check.Eol, false},
		{"no-trailing", &cfg.Check.Trailing, false},
		{"no-encoding", &cfg.Check.Encoding, false},
		{"no-eol-at-eof", &cfg.Check.EolAtEof, false},
		{"relative-include", &cfg.Check.RelativeInclude, true},
		{"copyright", &cfg.Check.Copyright, true},
		{"mode", &cfg.Check.Mode, true},
	}
	for _, t := range flagToggles {
		if set, _ := cmd.Flags().GetBool(t.flag); set {
			*t.target = t.value
		}
	}

	if cmd.Flags().Changed("line-length") {
		cfg.Check.MaxLineLen, _ = cmd.Flags().GetInt("line-length")
	}
	if failfast, _ := cmd.Flags().GetBool("failfast"); failfast {
		cfg.Check.Failfast = true
	}
	if cmd.Flags().Changed("eol") {
		name, _ := cmd.Flags().GetString("eol")
		eol, err := config.ParseEol(name)
		if err != nil {
			return err
		}
		cfg.Check.EolKind = eol
	}
	if cmd.Flags().Changed("encoding") {
		name, _ := cmd.Flags().GetString("encoding")
		if !config.IsKnownEncoding(name) {
			return fmt.Errorf("unknown encoding %q", name)
		}
		cfg.Check.EncodingName = name
	}
	mergeClangFormat(cmd, &cfg.Check.ClangFormat)

	return cfg.Validate()
}

// runCheck implements the check command logic.
func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := mergeCheckFlags(cmd, cfg); err != nil {
		return err
	}

	log := newLogger(cfg)
	logPatterns(log, cfg)

	var formatter clangformat.Formatter
	if cfg.Check.ClangFormat.Enabled() {
		// a missing formatter is fatal before any scanning begins
		execFmt := clangformat.New(cfg.Check.ClangFormat.Executable())
		if err := execFmt.Probe(); err != nil {
			return err
		}
		formatter = execFmt
	}

	tool, err := rules.NewCheckTool(cfg.Check, formatter, log)
	if err != nil {
		return err
	}

	opts, err := walker.NewOptions(cfg, walker.Binary, log)
	if err != nil {
		return err
	}

	stats := rules.NewStats()
	for _, root := range rootPaths(args) {
		partial, err := tool.Scan(root, opts)
		if err != nil {
			return err
		}
		stats.Update(partial)
	}

	if !stats.Empty() {
		log.Warnf("check failed\n%s", renderStats(tool, stats))
		return ErrChecksFailed
	}
	log.Infof("check completed successfully")
	return nil
}

// renderStats formats the failure counts, one rule per line in rule
// registration order.
func renderStats(tool *rules.CheckTool, stats *rules.Stats) string {
	var lines []string
	for _, name := range tool.RuleNames() {
		if count := stats.Count(name); count > 0 {
			lines = append(lines, fmt.Sprintf("%7d: %s", count, name))
		}
	}
	return strings.Join(lines, "\n")
}
