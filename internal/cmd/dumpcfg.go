package cmd

import (
	"github.com/harrison/fmtcheck/internal/config"
	"github.com/spf13/cobra"
)

// NewDumpCfgCommand creates the dumpcfg command.
func NewDumpCfgCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dumpcfg",
		Short: "Dump the default configuration to stdout",
		Long: `Dump the default configuration to standard output. The output can be
saved and passed back via --config to reproduce the default behavior.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.DefaultConfig().Dump(cmd.OutOrStdout())
		},
	}
}
