package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"triage/internal/analyzers"
	"triage/internal/config"
	"triage/internal/engine"
	"triage/internal/errors"
	"triage/internal/kb"
	"triage/internal/logging"
	"triage/internal/metrics"
)

// resolveTarget turns the optional path argument into an absolute path,
// defaulting to the current directory.
func resolveTarget(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewValidationFailed("cannot resolve path").
			WithDetail("path", path)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", errors.NewPathNotFound(path)
	}
	return abs, nil
}

// loadConfigFor loads the configuration for a target root, honoring --config.
func loadConfigFor(root string) (*config.Config, error) {
	if configFlag != "" {
		return config.LoadFile(configFlag)
	}
	return config.Load(root)
}

// newLogger builds the command logger on stderr, applying flag overrides.
// Stdout stays clean for command output.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	format := cfg.Logging.Format
	if logFormatFlag != "" {
		format = logFormatFlag
	}
	return logging.New(os.Stderr, logging.LevelFromString(level), logging.Format(format))
}

// newEngine builds a scan engine with every analyzer registered. The engine
// itself skips analyzers the config disables.
func newEngine(cfg *config.Config, logger *slog.Logger) *engine.Engine {
	eng := engine.New(cfg.Scan, logger)
	eng.Register(analyzers.NewSyntaxAnalyzer(logger))
	eng.Register(analyzers.NewRuntimeAnalyzer(logger))
	eng.Register(analyzers.NewConfigValidator(logger))
	eng.Register(analyzers.NewSecretAnalyzer(logger))
	return eng
}

// openMetrics opens the metrics store for a target root. Relative database
// paths resolve against the root, so each project keeps its own store.
func openMetrics(cfg *config.Config, root string, logger *slog.Logger) (*metrics.Store, error) {
	path := cfg.Metrics.DatabasePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return metrics.Open(path, logger)
}

// applyRetention drops events past the configured retention window. Called
// on write paths only; queries never mutate the store.
func applyRetention(store *metrics.Store, cfg *config.Config, logger *slog.Logger) {
	days := cfg.Metrics.RetentionDays
	if days <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	if _, err := store.Purge(context.Background(), cutoff); err != nil {
		logger.Warn("retention purge failed", "error", err)
	}
}

// loadCatalog returns the built-in knowledge base merged with the configured
// catalog directory, when one is set. A broken catalog directory degrades to
// the built-ins with a warning.
func loadCatalog(cfg *config.Config, root string, logger *slog.Logger) *kb.Catalog {
	catalog := kb.Builtin()
	if cfg.KB.CatalogDir == "" {
		return catalog
	}
	dir := cfg.KB.CatalogDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	if err := catalog.LoadDir(dir, logger); err != nil {
		logger.Warn("failed to load catalog directory", "dir", dir, "error", err)
	}
	return catalog
}

// cliCatalog loads the catalog for the current directory's configuration.
// Used by the commands that take no target path.
func cliCatalog() (*kb.Catalog, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfigFor(root)
	if err != nil {
		return nil, err
	}
	return loadCatalog(cfg, root, newLogger(cfg)), nil
}
