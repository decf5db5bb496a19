// Package analyzers provides the built-in analyzers the scan engine runs.
package analyzers

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"triage/internal/engine"
)

// SyntaxAnalyzer reports parse-level defects and unresolved work markers.
// Parsing uses tree-sitter when built with cgo; without cgo a conservative
// heuristic pass runs instead.
type SyntaxAnalyzer struct {
	logger *slog.Logger
}

// NewSyntaxAnalyzer creates a syntax analyzer.
func NewSyntaxAnalyzer(logger *slog.Logger) *SyntaxAnalyzer {
	return &SyntaxAnalyzer{logger: logger}
}

// Name returns the registry name.
func (s *SyntaxAnalyzer) Name() string { return "syntax" }

// Analyze scans every target file for parse defects and markers.
func (s *SyntaxAnalyzer) Analyze(ctx context.Context, target engine.Target) ([]engine.ErrorRecord, error) {
	records := make([]engine.ErrorRecord, 0)

	for _, file := range target.Files {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		default:
		}

		content, err := os.ReadFile(target.Abs(file))
		if err != nil {
			s.logger.Debug("skipping unreadable file", "file", file, "error", err)
			continue
		}

		lang := target.Language(file)
		if parseSupported(lang) {
			records = append(records, s.parseRecords(ctx, file, content, lang)...)
		}
		records = append(records, markerRecords(file, content, lang)...)
	}

	return records, nil
}

// parseSupported reports whether the parse pass understands the language.
func parseSupported(lang string) bool {
	switch lang {
	case "go", "javascript", "typescript", "python":
		return true
	}
	return false
}

var markerRe = regexp.MustCompile(`\b(TODO|FIXME|XXX)\b`)

// markerRecords flags unresolved work markers, at most one record per line.
func markerRecords(file string, content []byte, lang string) []engine.ErrorRecord {
	var records []engine.ErrorRecord

	for i, line := range strings.Split(string(content), "\n") {
		m := markerRe.FindString(line)
		if m == "" {
			continue
		}
		records = append(records, engine.ErrorRecord{
			File:     file,
			Line:     i + 1,
			Category: engine.CategorySyntax,
			Severity: engine.SeverityWarning,
			Message:  `unresolved marker "` + m + `"`,
			Snippet:  truncateLine(line),
			Language: lang,
		})
	}

	return records
}

// truncateLine trims and caps a snippet line.
func truncateLine(line string) string {
	line = strings.TrimSpace(line)
	if len(line) > 160 {
		return line[:160]
	}
	return line
}
