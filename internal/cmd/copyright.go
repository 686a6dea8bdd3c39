package cmd

import (
	"fmt"

	"github.com/harrison/fmtcheck/internal/config"
	"github.com/harrison/fmtcheck/internal/copyright"
	"github.com/harrison/fmtcheck/internal/walker"
	"github.com/spf13/cobra"
)

// NewUpdateCopyrightCommand creates the update-copyright command.
func NewUpdateCopyrightCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-copyright [paths...]",
		Short: "Update copyright statements in source files",
		Long: `Update copyright statements: existing year ranges are extended to the
configured year, and files with no statement can have a template
(with a {year} placeholder) prepended.

Paths default to the current directory.`,
		RunE: runUpdateCopyright,
	}

	cmd.Flags().Int("year", 0, "the year the statements are extended to (default: the current year)")
	cmd.Flags().String("template", "", "path to a statement template prepended to files with no copyright at all")
	cmd.Flags().Bool("no-update", false, "disable rewriting of existing year ranges")
	cmd.Flags().BoolP("backup", "b", false,
		fmt.Sprintf("back up the original content to the same name + %q before rewriting", config.BackupSuffix))

	return cmd
}

// mergeCopyrightFlags folds the update-copyright flags into the
// configuration.
func mergeCopyrightFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("year") {
		cfg.Copyright.Year, _ = cmd.Flags().GetInt("year")
	}
	if cmd.Flags().Changed("template") {
		cfg.Copyright.TemplatePath, _ = cmd.Flags().GetString("template")
	}
	if noUpdate, _ := cmd.Flags().GetBool("no-update"); noUpdate {
		cfg.Copyright.Update = false
	}
	if backup, _ := cmd.Flags().GetBool("backup"); backup {
		cfg.Copyright.Backup = true
	}

	return cfg.Validate()
}

// runUpdateCopyright implements the update-copyright command logic.
func runUpdateCopyright(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := mergeCopyrightFlags(cmd, cfg); err != nil {
		return err
	}

	log := newLogger(cfg)
	logPatterns(log, cfg)

	tool, err := copyright.NewTool(cfg.Copyright, log)
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
