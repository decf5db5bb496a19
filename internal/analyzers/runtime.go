package analyzers

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"triage/internal/engine"
)

// RuntimePattern defines one line-level runtime risk detection rule.
type RuntimePattern struct {
	Name      string
	Languages []string
	Regex     *regexp.Regexp
	Severity  engine.Severity
	Message   string
	SkipTests bool
}

// Applies reports whether the pattern covers the given language and file.
func (p RuntimePattern) Applies(lang, file string) bool {
	if p.SkipTests && strings.HasSuffix(file, "_test.go") {
		return false
	}
	for _, l := range p.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// RuntimePatterns contains the builtin runtime risk rules.
var RuntimePatterns = []RuntimePattern{
	{
		Name:      "python_bare_except",
		Languages: []string{"python"},
		Regex:     regexp.MustCompile(`^\s*except\s*:`),
		Severity:  engine.SeverityWarning,
		Message:   "bare except clause catches every exception",
	},
	{
		Name:      "eval_call",
		Languages: []string{"python", "javascript", "typescript"},
		Regex:     regexp.MustCompile(`\beval\s*\(`),
		Severity:  engine.SeverityWarning,
		Message:   "eval executes arbitrary code at runtime",
	},
	{
		Name:      "go_panic",
		Languages: []string{"go"},
		Regex:     regexp.MustCompile(`\bpanic\s*\(`),
		Severity:  engine.SeverityWarning,
		Message:   "panic outside tests crashes the process",
		SkipTests: true,
	},
	{
		Name:      "go_discarded_error",
		Languages: []string{"go"},
		Regex:     regexp.MustCompile(`^\s*_\s*=\s*err\b`),
		Severity:  engine.SeverityWarning,
		Message:   "error value discarded",
	},
	{
		Name:      "js_process_exit",
		Languages: []string{"javascript", "typescript"},
		Regex:     regexp.MustCompile(`\bprocess\.exit\s*\(`),
		Severity:  engine.SeverityWarning,
		Message:   "process.exit bypasses cleanup handlers",
	},
	{
		Name:      "js_empty_catch",
		Languages: []string{"javascript", "typescript"},
		Regex:     regexp.MustCompile(`catch\s*\([^)]*\)\s*\{\s*\}`),
		Severity:  engine.SeverityWarning,
		Message:   "empty catch block swallows errors",
	},
	{
		Name:      "rust_unwrap",
		Languages: []string{"rust"},
		Regex:     regexp.MustCompile(`\.unwrap\(\)`),
		Severity:  engine.SeverityInfo,
		Message:   "unwrap panics when the value is an error",
	},
	{
		Name:      "python_os_system",
		Languages: []string{"python"},
		Regex:     regexp.MustCompile(`\bos\.system\s*\(`),
		Severity:  engine.SeverityInfo,
		Message:   "os.system exit status is easy to miss",
	},
}

// PatternByName returns the builtin rule with the given name, or nil.
func PatternByName(name string) *RuntimePattern {
	for i := range RuntimePatterns {
		if RuntimePatterns[i].Name == name {
			return &RuntimePatterns[i]
		}
	}
	return nil
}

// RuntimeAnalyzer flags likely runtime failures with per-language line rules.
type RuntimeAnalyzer struct {
	logger   *slog.Logger
	patterns []RuntimePattern
}

// NewRuntimeAnalyzer creates a runtime risk analyzer with the builtin rules.
func NewRuntimeAnalyzer(logger *slog.Logger) *RuntimeAnalyzer {
	return &RuntimeAnalyzer{
		logger:   logger,
		patterns: RuntimePatterns,
	}
}

// Name returns the registry name.
func (r *RuntimeAnalyzer) Name() string { return "runtime" }

// Analyze applies every matching rule to every line of every target file.
func (r *RuntimeAnalyzer) Analyze(ctx context.Context, target engine.Target) ([]engine.ErrorRecord, error) {
	records := make([]engine.ErrorRecord, 0)

	for _, file := range target.Files {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		default:
		}

		lang := target.Language(file)
		if lang == "" {
			continue
		}

		active := make([]RuntimePattern, 0, len(r.patterns))
		for _, p := range r.patterns {
			if p.Applies(lang, file) {
				active = append(active, p)
			}
		}
		if len(active) == 0 {
			continue
		}

		content, err := os.ReadFile(target.Abs(file))
		if err != nil {
			r.logger.Debug("skipping unreadable file", "file", file, "error", err)
			continue
		}

		records = append(records, r.scanLines(file, lang, content, active)...)
	}

	return records, nil
}

func (r *RuntimeAnalyzer) scanLines(file, lang string, content []byte, active []RuntimePattern) []engine.ErrorRecord {
	var records []engine.ErrorRecord

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Minified or generated lines are noise.
		if len(line) > 1000 {
			continue
		}

		for _, p := range active {
			loc := p.Regex.FindStringIndex(line)
			if loc == nil {
				continue
			}
			records = append(records, engine.ErrorRecord{
				File:     file,
				Line:     lineNum,
				Column:   loc[0] + 1,
				Category: engine.CategoryRuntimeRisk,
				Severity: p.Severity,
				Message:  p.Message,
				Snippet:  truncateLine(line),
				Language: lang,
			})
		}
	}

	return records
}
