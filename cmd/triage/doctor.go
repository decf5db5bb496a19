package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"triage/internal/analyzers"
	"triage/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [path]",
	Short: "Check the triage setup for a project",
	Long: `Check the configuration, metrics store, knowledge base, and analysis
environment for a project. Defaults to the current directory.

Examples:
  triage doctor
  triage doctor ./service
  triage doctor --json`,
	Args: maxArgs(1),
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type doctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "pass", "warn", "fail"
	Detail string `json:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	root, err := resolveTarget(args)
	if err != nil {
		return err
	}

	var checks []doctorCheck
	cfg, cfgErr := loadConfigFor(root)
	if cfgErr != nil {
		checks = append(checks, doctorCheck{Name: "config", Status: "fail", Detail: cfgErr.Error()})
	} else {
		checks = append(checks, doctorCheck{Name: "config", Status: "pass", Detail: "valid"})
		logger := newLogger(cfg)
		checks = append(checks,
			checkMetrics(cfg, root, logger),
			checkCatalog(cfg, root, logger),
		)
	}
	checks = append(checks, checkSyntaxParser(), checkWatcher())

	failed := 0
	for _, c := range checks {
		if c.Status == "fail" {
			failed++
		}
	}

	if jsonOut {
		return printJSON(doctorResponse{Root: root, Checks: checks, Healthy: failed == 0})
	}

	fmt.Printf("Checking %s\n\n", root)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tSTATUS\tDETAIL")
	for _, c := range checks {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Status, c.Detail)
	}
	w.Flush()

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func checkMetrics(cfg *config.Config, root string, logger *slog.Logger) doctorCheck {
	store, err := openMetrics(cfg, root, logger)
	if err != nil {
		return doctorCheck{Name: "metrics", Status: "fail", Detail: err.Error()}
	}
	defer store.Close()

	errCount, resCount, err := store.Counts(context.Background())
	if err != nil {
		return doctorCheck{Name: "metrics", Status: "fail", Detail: err.Error()}
	}
	return doctorCheck{
		Name:   "metrics",
		Status: "pass",
		Detail: fmt.Sprintf("%d error event(s), %d resolution(s) in %s", errCount, resCount, store.Path()),
	}
}

func checkCatalog(cfg *config.Config, root string, logger *slog.Logger) doctorCheck {
	if cfg.KB.CatalogDir != "" {
		dir := cfg.KB.CatalogDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		if _, err := os.Stat(dir); err != nil {
			return doctorCheck{
				Name:   "catalog",
				Status: "warn",
				Detail: fmt.Sprintf("catalog directory %s missing, using builtins only", dir),
			}
		}
	}
	catalog := loadCatalog(cfg, root, logger)
	return doctorCheck{
		Name:   "catalog",
		Status: "pass",
		Detail: fmt.Sprintf("%d pattern(s), %d solution(s), %d practice(s)",
			len(catalog.Patterns()), len(catalog.Solutions()), len(catalog.Practices())),
	}
}

func checkSyntaxParser() doctorCheck {
	if analyzers.IsAvailable() {
		return doctorCheck{Name: "syntax parser", Status: "pass", Detail: "tree-sitter grammars compiled in"}
	}
	return doctorCheck{Name: "syntax parser", Status: "warn", Detail: "tree-sitter unavailable, heuristic checks only"}
}

func checkWatcher() doctorCheck {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return doctorCheck{Name: "watcher", Status: "warn", Detail: fmt.Sprintf("filesystem watcher unavailable: %v", err)}
	}
	w.Close()
	return doctorCheck{Name: "watcher", Status: "pass", Detail: "filesystem events available"}
}

type doctorResponse struct {
	Root    string        `json:"root"`
	Checks  []doctorCheck `json:"checks"`
	Healthy bool          `json:"healthy"`
}
