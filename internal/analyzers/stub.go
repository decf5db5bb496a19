//go:build !cgo

package analyzers

import (
	"context"

	"triage/internal/engine"
)

// IsAvailable returns whether tree-sitter parsing is available.
// Returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}

// parseRecords runs the heuristic pass. Without CGO there is no real
// parser, so findings are downgraded to warnings prefixed "possible".
func (s *SyntaxAnalyzer) parseRecords(ctx context.Context, file string, content []byte, lang string) []engine.ErrorRecord {
	return heuristicRecords(file, content, lang)
}
