// Package cmd implements the fmtcheck command tree.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/harrison/fmtcheck/internal/config"
	"github.com/harrison/fmtcheck/internal/logger"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ErrChecksFailed distinguishes "check found violations" from fatal errors,
// so the process can exit 1 rather than 2.
var ErrChecksFailed = errors.New("check failed")

// NewRootCommand creates and returns the root cobra command for fmtcheck.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmtcheck",
		Short: "Basic formatting checks and fixes for source code",
		Long: `fmtcheck performs basic formatting checks on source trees: presence
of tabs, EOL consistency, trailing spaces, conformity to the ASCII
encoding and line length.

A basic tool for fixing formatting problems is also provided, together
with a copyright statement updater.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	cmd.PersistentFlags().StringSlice("patterns", nil, "override the file name patterns to process")
	cmd.PersistentFlags().StringSlice("skip", nil, "override the path patterns to skip")
	cmd.PersistentFlags().Bool("no-skip", false, "clear the skip pattern list entirely")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output: print a line for each failed check")
	cmd.PersistentFlags().BoolP("debug", "d", false, "enable debug output")

	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewFixCommand())
	cmd.AddCommand(NewUpdateCopyrightCommand())
	cmd.AddCommand(NewDumpCfgCommand())

	return cmd
}

// resolveConfig builds the fully-resolved configuration for a command:
// defaults, then the config file when one is given, then the shared pattern
// and verbosity flags. Command-specific flags are merged by each command
// afterwards.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	patterns, _ := cmd.Flags().GetStringSlice("patterns")
	skip, _ := cmd.Flags().GetStringSlice("skip")
	noSkip, _ := cmd.Flags().GetBool("no-skip")
	cfg.ApplyPatternOverrides(patterns, skip, noSkip)

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.LogLevel = "debug"
	} else if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.LogLevel = "info"
	} else if quiet, err := cmd.Flags().GetBool("quiet"); err == nil && quiet {
		cfg.Logging.LogLevel = "error"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates the console logger for a resolved configuration.
func newLogger(cfg *config.Config) *logger.ConsoleLogger {
	return logger.New(os.Stdout, cfg.Logging.LogLevel)
}

// rootPaths returns the positional path arguments, defaulting to the
// current directory.
func rootPaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// mergeClangFormat applies the --clang-format flag, which may carry an
// executable path or enable the default one.
func mergeClangFormat(cmd *cobra.Command, target *config.ClangFormat) {
	if !cmd.Flags().Changed("clang-format") {
		return
	}
	value, _ := cmd.Flags().GetString("clang-format")
	*target = config.ClangFormat(value)
}

// logPatterns emits the resolved pattern lists at debug level.
func logPatterns(log *logger.ConsoleLogger, cfg *config.Config) {
	log.Debugf("path patterns: %q", cfg.PathPatterns)
	log.Debugf("skip path patterns: %q", cfg.SkipPathPatterns)
	log.Debugf("skip data patterns: %q", cfg.SkipDataPatterns)
}

// Execute runs the root command and maps its outcome to a process exit
// code: 0 success, 1 check violations, 2 fatal error.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		if errors.Is(err, ErrChecksFailed) {
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}
