package report

import (
	"fmt"
	"strings"
	"time"

	"triage/internal/engine"
)

func renderMarkdown(result *engine.ScanResult, opts Options) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Scan Report\n\n")
	fmt.Fprintf(&b, "Root: `%s`\n\n", result.Root)
	if opts.IncludeTimestamps {
		fmt.Fprintf(&b, "Scan `%s` started %s and took %d ms.\n\n",
			result.ScanID, result.StartedAt.UTC().Format(time.RFC3339), result.DurationMs)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Severity | Count |\n")
	b.WriteString("| --- | --- |\n")
	for _, sev := range severityOrder {
		fmt.Fprintf(&b, "| %s | %d |\n", sev, result.Summary.BySeverity[sev])
	}
	fmt.Fprintf(&b, "\n%d finding(s) in %d of %d scanned file(s).\n",
		result.Summary.Total, result.Summary.FilesWithRecords, result.FilesScanned)

	files, byFile := recordsByFile(result)
	if len(files) > 0 {
		b.WriteString("\n## Findings\n")
		for _, file := range files {
			name := file
			if name == "" {
				name = "(no file)"
			}
			fmt.Fprintf(&b, "\n### %s\n\n", name)
			b.WriteString("| Line | Severity | Category | Message |\n")
			b.WriteString("| --- | --- | --- | --- |\n")
			for _, rec := range byFile[file] {
				fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
					rec.Line, rec.Severity, rec.Category, markdownEscape(rec.Message))
			}
		}
	}

	if len(result.Failures) > 0 {
		b.WriteString("\n## Analyzer failures\n\n")
		for _, f := range result.Failures {
			fmt.Fprintf(&b, "- `%s`: %s\n", f.Analyzer, markdownEscape(f.Message))
		}
	}

	return []byte(b.String()), nil
}

// markdownEscape keeps messages from breaking table cells.
func markdownEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
