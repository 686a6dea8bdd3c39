package cmd

import (
	"fmt"

	"github.com/harrison/fmtcheck/internal/clangformat"
	"github.com/harrison/fmtcheck/internal/config"
	"github.com/harrison/fmtcheck/internal/filelock"
	"github.com/harrison/fmtcheck/internal/rules"
	"github.com/harrison/fmtcheck/internal/walker"
	"github.com/spf13/cobra"
)

// NewFixCommand creates the fix command.
func NewFixCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [paths...]",
		Short: "Fix basic formatting issues related to spacing",
		Long: `Fix basic formatting issues related to spacing: end of line (EOL)
consistency, trailing spaces, presence of tabs.

Files are rewritten in place using the configured EOL convention. Paths
default to the current directory.`,
		RunE: runFix,
	}

	cmd.Flags().String("eol", "", "output end of line convention (NATIVE, UNIX or WIN)")
	cmd.Flags().Int("tabsize", 4, "number of blanks replacing each tab; 0 disables tab substitution")
	cmd.Flags().Bool("no-trailing", false, "disable trimming of trailing spaces")
	cmd.Flags().Bool("no-eof", false, "disable normalization of the terminator at end of file")
	cmd.Flags().Bool("fix-mode", false, "clear the executable permission bits after rewriting")
	cmd.Flags().String("clang-format", "", "run the content through clang-format, optionally naming the executable")
	cmd.Flags().Lookup("clang-format").NoOptDefVal = config.DefaultClangFormatExe
	cmd.Flags().BoolP("backup", "b", false,
		fmt.Sprintf("back up the original content to the same name + %q before rewriting", config.BackupSuffix))

	return cmd
}

// mergeFixFlags folds the fix command flags into the configuration.
func mergeFixFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("eol") {
		name, _ := cmd.Flags().GetString("eol")
		eol, err := config.ParseEol(name)
		if err != nil {
			return err
		}
		cfg.Fix.EolKind = eol
	}
	if cmd.Flags().Changed("tabsize") {
		cfg.Fix.TabSize, _ = cmd.Flags().GetInt("tabsize")
	}
	if noTrailing, _ := cmd.Flags().GetBool("no-trailing"); noTrailing {
		cfg.Fix.Trailing = false
	}
	if noEof, _ := cmd.Flags().GetBool("no-eof"); noEof {
		cfg.Fix.Eof = false
	}
	if fixMode, _ := cmd.Flags().GetBool("fix-mode"); fixMode {
		cfg.Fix.Mode = true
	}
	if backup, _ := cmd.Flags().GetBool("backup"); backup {
		cfg.Fix.Backup = true
	}
	mergeClangFormat(cmd, &cfg.Fix.ClangFormat)

	return cfg.Validate()
}

// runFix implements the fix command logic.
func runFix(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := mergeFixFlags(cmd, cfg); err != nil {
		return err
	}

	log := newLogger(cfg)
	logPatterns(log, cfg)

	var formatter clangformat.Formatter
	if cfg.Fix.ClangFormat.Enabled() {
		execFmt := clangformat.New(cfg.Fix.ClangFormat.Executable())
		if err := execFmt.Probe(); err != nil {
			return err
		}
		formatter = execFmt
	}

	tool, err := rules.NewFixTool(cfg.Fix, formatter, log)
	if err != nil {
		return err
	}

	opts, err := walker.NewOptions(cfg, walker.Text, log)
	if err != nil {
		return err
	}

	for _, root := range rootPaths(args) {
		if err := withScanLock(root, func() error {
			return tool.Scan(root, opts)
		}); err != nil {
			return err
		}
	}
	return nil
}

// withScanLock guards a mutating scan with the per-root lock so two
// concurrent fmtcheck runs cannot interleave backups and rewrites.
func withScanLock(root string, fn func() error) error {
	lock, err := filelock.ForRoot(root)
	if err != nil {
		return err
	}

	acquired, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("another fmtcheck run is already modifying %s", root)
	}
	defer lock.Unlock()

	return fn()
}
