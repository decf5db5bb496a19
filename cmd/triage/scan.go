package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"triage/internal/config"
	"triage/internal/engine"
	"triage/internal/report"
)

var (
	scanFormat   string
	scanOut      string
	scanCompress bool
	scanExitZero bool
	scanNoTrack  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a source tree for errors",
	Long: `Run every enabled analyzer over a file or directory and write a report.

Findings are recorded in the metrics store so frequency and resolution
analytics cover them; --no-track skips that.

The exit code is 1 when any finding has severity critical or error,
0 otherwise.

Examples:
  triage scan                            # Scan the current directory
  triage scan ./src --format markdown
  triage scan . --format sarif --out findings.sarif
  triage scan . --exit-zero              # Report only, never fail the build`,
	Args: maxArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "",
		"Report format: json, sarif, markdown, html, or text (default from config)")
	scanCmd.Flags().StringVar(&scanOut, "out", "",
		"Write the report to a file instead of stdout")
	scanCmd.Flags().BoolVar(&scanCompress, "compress", false,
		"Gzip the report output")
	scanCmd.Flags().BoolVar(&scanExitZero, "exit-zero", false,
		"Exit 0 even when errors are found")
	scanCmd.Flags().BoolVar(&scanNoTrack, "no-track", false,
		"Do not record findings in the metrics store")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	failed, err := scanAndReport(args)
	if err != nil {
		return err
	}
	if failed && !scanExitZero {
		os.Exit(1)
	}
	return nil
}

// scanAndReport runs the scan and writes the report. The boolean reports
// whether any finding reached error severity.
func scanAndReport(args []string) (bool, error) {
	root, err := resolveTarget(args)
	if err != nil {
		return false, err
	}
	cfg, err := loadConfigFor(root)
	if err != nil {
		return false, err
	}
	logger := newLogger(cfg)

	eng := newEngine(cfg, logger)
	result, err := eng.Scan(context.Background(), root)
	if err != nil {
		return false, err
	}

	if !scanNoTrack {
		trackResult(cfg, root, logger, result)
	}

	format := scanFormat
	if format == "" {
		format = cfg.Report.DefaultFormat
	}
	data, err := report.Generate(result, report.Options{
		Format:            format,
		IncludeTimestamps: cfg.Report.IncludeTimestamps,
		Compress:          scanCompress || cfg.Report.Compress,
	})
	if err != nil {
		return false, err
	}

	if scanOut != "" {
		if err := os.WriteFile(scanOut, data, 0644); err != nil {
			return false, fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("report written", "path", scanOut, "bytes", len(data))
	} else {
		os.Stdout.Write(data)
	}

	return hasBlockingRecords(result), nil
}

// trackResult records the scan in the metrics store. Tracking failures are
// warnings; the report still gets written.
func trackResult(cfg *config.Config, root string, logger *slog.Logger, result *engine.ScanResult) {
	store, err := openMetrics(cfg, root, logger)
	if err != nil {
		logger.Warn("metrics store unavailable, findings not tracked", "error", err)
		return
	}
	defer store.Close()

	applyRetention(store, cfg, logger)
	if err := store.TrackScan(context.Background(), result); err != nil {
		logger.Warn("failed to track scan", "error", err)
	}
}

// hasBlockingRecords reports whether any record is critical or error severity.
func hasBlockingRecords(result *engine.ScanResult) bool {
	for _, rec := range result.Records {
		if rec.Severity == engine.SeverityCritical || rec.Severity == engine.SeverityError {
			return true
		}
	}
	return false
}
