// Package engine coordinates analyzers over a resolved set of source files.
package engine

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Severity indicates how serious a record is.
type Severity string

const (
	// SeverityCritical indicates a defect that blocks the program entirely
	SeverityCritical Severity = "critical"
	// SeverityError indicates a defect that will cause failures
	SeverityError Severity = "error"
	// SeverityWarning indicates a likely problem worth reviewing
	SeverityWarning Severity = "warning"
	// SeverityInfo indicates an observation with no direct impact
	SeverityInfo Severity = "info"
)

// Weight returns a numeric weight for sorting (higher = more severe).
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Weight() > 0
}

// Well-known record categories. Analyzers may emit their own categories;
// these are the ones the built-in analyzers and the knowledge base share.
const (
	CategorySyntax          = "syntax"
	CategoryRuntimeRisk     = "runtime-risk"
	CategoryConfiguration   = "configuration"
	CategoryAnalyzerFailure = "analyzer-failure"
	CategoryDependency      = "dependency"
	CategoryPerformance     = "performance"
)

// ErrorRecord is a single defect found in a scanned tree.
type ErrorRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	File      string    `json:"file,omitempty"`
	Line      int       `json:"line,omitempty"`
	Column    int       `json:"column,omitempty"`
	Category  string    `json:"category"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Snippet   string    `json:"snippet,omitempty"`
	Language  string    `json:"language,omitempty"`
}

// AnalyzerFailure records an analyzer that errored or panicked during a scan.
// Failures are data; they never abort the scan.
type AnalyzerFailure struct {
	Analyzer string `json:"analyzer"`
	Message  string `json:"message"`
}

// Target is the resolved input to an analyzer: a root directory plus the
// relative, slash-separated file paths that survived ignore filtering.
// Analyzers must not mutate it.
type Target struct {
	Root  string   `json:"root"`
	Files []string `json:"files"`
}

// Abs returns the absolute path for a relative target file.
func (t Target) Abs(file string) string {
	return filepath.Join(t.Root, filepath.FromSlash(file))
}

// Language returns the detected language for a target file.
func (t Target) Language(file string) string {
	return DetectLanguage(file)
}

// Summary aggregates record counts for a scan.
type Summary struct {
	Total            int              `json:"total"`
	BySeverity       map[Severity]int `json:"bySeverity,omitempty"`
	ByCategory       map[string]int   `json:"byCategory,omitempty"`
	FilesWithRecords int              `json:"filesWithRecords"`
}

// ScanResult is the outcome of running all registered analyzers over a target.
type ScanResult struct {
	ScanID       string            `json:"scanId"`
	Root         string            `json:"root"`
	StartedAt    time.Time         `json:"startedAt"`
	DurationMs   int64             `json:"durationMs"`
	FilesScanned int               `json:"filesScanned"`
	Records      []ErrorRecord     `json:"records"`
	Failures     []AnalyzerFailure `json:"failures,omitempty"`
	Summary      Summary           `json:"summary"`
}

// Analyzer is the capability interface every analyzer implements.
// Analyzers receive the resolved target and return the records they found.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, target Target) ([]ErrorRecord, error)
}

// languageByExt maps file extensions to language identifiers.
var languageByExt = map[string]string{
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".go":   "go",
	".rb":   "ruby",
	".java": "java",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".sh":   "shell",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
}

// DetectLanguage returns the language identifier for a file path,
// or "" when the extension is not recognized.
func DetectLanguage(file string) string {
	ext := strings.ToLower(path.Ext(file))
	return languageByExt[ext]
}

// buildSummary creates a summary from sorted records.
func buildSummary(records []ErrorRecord) Summary {
	summary := Summary{
		Total:      len(records),
		BySeverity: make(map[Severity]int),
		ByCategory: make(map[string]int),
	}

	files := make(map[string]bool)
	for _, r := range records {
		summary.BySeverity[r.Severity]++
		summary.ByCategory[r.Category]++
		if r.File != "" {
			files[r.File] = true
		}
	}

	summary.FilesWithRecords = len(files)

	return summary
}
