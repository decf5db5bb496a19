package report

import (
	"time"

	"triage/internal/engine"
	"triage/internal/errors"
	"triage/internal/output"
)

// jsonRecord mirrors engine.ErrorRecord with the run-varying identity
// fields optional so they can be dropped for deterministic output.
type jsonRecord struct {
	ID        string          `json:"id,omitempty"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	File      string          `json:"file,omitempty"`
	Line      int             `json:"line,omitempty"`
	Column    int             `json:"column,omitempty"`
	Category  string          `json:"category"`
	Severity  engine.Severity `json:"severity"`
	Message   string          `json:"message"`
	Source    string          `json:"source"`
	Snippet   string          `json:"snippet,omitempty"`
	Language  string          `json:"language,omitempty"`
}

type jsonReport struct {
	ScanID       string                   `json:"scanId,omitempty"`
	Root         string                   `json:"root"`
	StartedAt    *time.Time               `json:"startedAt,omitempty"`
	DurationMs   int64                    `json:"durationMs,omitempty"`
	FilesScanned int                      `json:"filesScanned"`
	Records      []jsonRecord             `json:"records"`
	Failures     []engine.AnalyzerFailure `json:"failures,omitempty"`
	Summary      engine.Summary           `json:"summary"`
}

func renderJSON(result *engine.ScanResult, opts Options) ([]byte, error) {
	doc := jsonReport{
		Root:         result.Root,
		FilesScanned: result.FilesScanned,
		Records:      make([]jsonRecord, 0, len(result.Records)),
		Failures:     result.Failures,
		Summary:      result.Summary,
	}
	if opts.IncludeTimestamps {
		doc.ScanID = result.ScanID
		started := result.StartedAt
		doc.StartedAt = &started
		doc.DurationMs = result.DurationMs
	}

	for _, rec := range result.Records {
		jr := jsonRecord{
			File:     rec.File,
			Line:     rec.Line,
			Column:   rec.Column,
			Category: rec.Category,
			Severity: rec.Severity,
			Message:  rec.Message,
			Source:   rec.Source,
			Snippet:  rec.Snippet,
			Language: rec.Language,
		}
		if opts.IncludeTimestamps {
			jr.ID = rec.ID
			ts := rec.Timestamp
			jr.Timestamp = &ts
		}
		doc.Records = append(doc.Records, jr)
	}

	data, err := output.DeterministicEncodeIndented(doc, "  ")
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to encode report", err)
	}
	return append(data, '\n'), nil
}
