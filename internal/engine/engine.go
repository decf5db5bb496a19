package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"triage/internal/config"
	"triage/internal/errors"
)

// Engine fans a scan out to every registered analyzer and merges the results.
type Engine struct {
	cfg    config.ScanConfig
	logger *slog.Logger

	mu        sync.RWMutex
	order     []string
	analyzers map[string]Analyzer
}

// New creates an engine with an empty analyzer registry.
func New(cfg config.ScanConfig, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		logger:    logger,
		analyzers: make(map[string]Analyzer),
	}
}

// Register adds an analyzer to the registry. Registering a second analyzer
// with the same name replaces the first; registration order is preserved
// so fan-out and result merging stay deterministic.
func (e *Engine) Register(a Analyzer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := a.Name()
	if _, exists := e.analyzers[name]; !exists {
		e.order = append(e.order, name)
	}
	e.analyzers[name] = a
	e.logger.Debug("registered analyzer", "name", name)
}

// Analyzers returns the registered analyzer names in registration order.
func (e *Engine) Analyzers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, len(e.order))
	copy(names, e.order)
	return names
}

// analyzerRun is the outcome of one analyzer goroutine.
type analyzerRun struct {
	name    string
	records []ErrorRecord
	err     error
}

// Scan resolves the target under root and runs every enabled analyzer
// concurrently. A failing or panicking analyzer becomes an AnalyzerFailure
// entry plus one synthetic record; it never hides other analyzers' results.
func (e *Engine) Scan(ctx context.Context, root string) (*ScanResult, error) {
	start := time.Now()

	target, err := e.resolveTarget(root)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	names := make([]string, 0, len(e.order))
	active := make([]Analyzer, 0, len(e.order))
	for _, name := range e.order {
		if !e.cfg.AnalyzerEnabled(name) {
			e.logger.Debug("analyzer disabled by config", "name", name)
			continue
		}
		names = append(names, name)
		active = append(active, e.analyzers[name])
	}
	e.mu.RUnlock()

	e.logger.Info("scan started",
		"root", target.Root,
		"files", len(target.Files),
		"analyzers", len(active))

	runs := make([]analyzerRun, len(active))

	var wg sync.WaitGroup
	for i, a := range active {
		wg.Add(1)
		go func(i int, a Analyzer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					runs[i] = analyzerRun{
						name: names[i],
						err:  fmt.Errorf("panic: %v", r),
					}
				}
			}()

			records, err := a.Analyze(ctx, *target)
			runs[i] = analyzerRun{name: names[i], records: records, err: err}
		}(i, a)
	}
	wg.Wait()

	result := &ScanResult{
		ScanID:       uuid.NewString(),
		Root:         target.Root,
		StartedAt:    start.UTC(),
		FilesScanned: len(target.Files),
		Records:      make([]ErrorRecord, 0),
	}

	for _, run := range runs {
		if run.err != nil {
			e.logger.Warn("analyzer failed", "name", run.name, "error", run.err)
			failure := errors.NewAnalyzerFailure(run.name, run.err)
			result.Failures = append(result.Failures, AnalyzerFailure{
				Analyzer: run.name,
				Message:  run.err.Error(),
			})
			result.Records = append(result.Records, ErrorRecord{
				Category: CategoryAnalyzerFailure,
				Severity: SeverityError,
				Message:  failure.Message,
				Source:   run.name,
			})
			// Records collected before the failure still count.
		}
		for _, rec := range run.records {
			rec.Source = run.name
			result.Records = append(result.Records, rec)
		}
	}

	e.finalize(result, start)

	e.logger.Info("scan complete",
		"root", target.Root,
		"records", len(result.Records),
		"failures", len(result.Failures),
		"durationMs", result.DurationMs)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// finalize stamps, sorts, and summarizes the merged records.
func (e *Engine) finalize(result *ScanResult, start time.Time) {
	for i := range result.Records {
		if result.Records[i].ID == "" {
			result.Records[i].ID = uuid.NewString()
		}
		if result.Records[i].Timestamp.IsZero() {
			result.Records[i].Timestamp = start.UTC()
		}
		if result.Records[i].Language == "" && result.Records[i].File != "" {
			result.Records[i].Language = DetectLanguage(result.Records[i].File)
		}
	}

	// Stable order: two scans of identical trees yield identical record
	// sequences apart from IDs and timestamps.
	sort.Slice(result.Records, func(i, j int) bool {
		a, b := result.Records[i], result.Records[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Message < b.Message
	})

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Analyzer < result.Failures[j].Analyzer
	})

	result.Summary = buildSummary(result.Records)
	result.DurationMs = time.Since(start).Milliseconds()
}
