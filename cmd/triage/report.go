package main

import (
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [path]",
	Short: "Write a scan report (alias for 'scan')",
	Long: `Scan a file or directory and write the report.

This is a convenience alias for 'triage scan'; it shares the scan runner
and its flags.

Examples:
  triage report . --format html --out report.html
  triage report ./src --format text`,
	Args: maxArgs(1),
	RunE: runScan,
}

func init() {
	reportCmd.Flags().StringVar(&scanFormat, "format", "",
		"Report format: json, sarif, markdown, html, or text (default from config)")
	reportCmd.Flags().StringVar(&scanOut, "out", "",
		"Write the report to a file instead of stdout")
	reportCmd.Flags().BoolVar(&scanCompress, "compress", false,
		"Gzip the report output")
	reportCmd.Flags().BoolVar(&scanExitZero, "exit-zero", false,
		"Exit 0 even when errors are found")
	reportCmd.Flags().BoolVar(&scanNoTrack, "no-track", false,
		"Do not record findings in the metrics store")
	rootCmd.AddCommand(reportCmd)
}
