package main

import (
	"github.com/spf13/cobra"

	"triage/internal/version"
)

var (
	// Global flags shared by every command.
	configFlag    string
	logLevelFlag  string
	logFormatFlag string
	jsonOut       bool
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage - source error analysis and remediation",
	Long: `Triage scans source trees for syntax defects, runtime risks, and broken
configuration, watches projects for changes, tracks error and resolution
events over time, and serves remediation guidance from a knowledge base
of error patterns.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
		}
		return cmd.Help()
	},
}

func init() {
	rootCmd.SetVersionTemplate("triage version {{.Version}}\n")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Config file (default: triage.{yaml,json,toml} in the target directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, or error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: text or json (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false,
		"Machine-readable JSON output")
}
