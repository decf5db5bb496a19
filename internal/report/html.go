package report

import (
	"bytes"
	"html/template"
	"time"

	"triage/internal/engine"
	"triage/internal/errors"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Scan Report</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #1f2328; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: 0.35rem 0.7rem; text-align: left; }
th { background: #f6f8fa; }
code { background: #f6f8fa; padding: 0.1rem 0.3rem; }
.sev-critical { background: #ffd7d5; }
.sev-error { background: #ffe9e6; }
.sev-warning { background: #fff8c5; }
.sev-info { background: #ddf4ff; }
.meta { color: #59636e; }
</style>
</head>
<body>
<h1>Scan Report</h1>
<p>Root: <code>{{.Root}}</code></p>
{{- if .Meta}}
<p class="meta">{{.Meta}}</p>
{{- end}}
<h2>Summary</h2>
<table>
<tr><th>Severity</th><th>Count</th></tr>
{{- range .Severities}}
<tr class="sev-{{.Severity}}"><td>{{.Severity}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>
<p>{{.Total}} finding(s) in {{.FilesWithRecords}} of {{.FilesScanned}} scanned file(s).</p>
{{- if .Files}}
<h2>Findings</h2>
{{- range .Files}}
<h3><code>{{.Name}}</code></h3>
<table>
<tr><th>Line</th><th>Severity</th><th>Category</th><th>Message</th></tr>
{{- range .Records}}
<tr class="sev-{{.Severity}}"><td>{{.Line}}</td><td>{{.Severity}}</td><td>{{.Category}}</td><td>{{.Message}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- end}}
{{- if .Failures}}
<h2>Analyzer failures</h2>
<ul>
{{- range .Failures}}
<li><code>{{.Analyzer}}</code>: {{.Message}}</li>
{{- end}}
</ul>
{{- end}}
</body>
</html>
`))

type htmlSeverity struct {
	Severity engine.Severity
	Count    int
}

type htmlFile struct {
	Name    string
	Records []engine.ErrorRecord
}

type htmlData struct {
	Root             string
	Meta             string
	Severities       []htmlSeverity
	Total            int
	FilesWithRecords int
	FilesScanned     int
	Files            []htmlFile
	Failures         []engine.AnalyzerFailure
}

func renderHTML(result *engine.ScanResult, opts Options) ([]byte, error) {
	data := htmlData{
		Root:             result.Root,
		Total:            result.Summary.Total,
		FilesWithRecords: result.Summary.FilesWithRecords,
		FilesScanned:     result.FilesScanned,
		Failures:         result.Failures,
	}
	if opts.IncludeTimestamps {
		data.Meta = "Scan " + result.ScanID + " started " +
			result.StartedAt.UTC().Format(time.RFC3339)
	}
	for _, sev := range severityOrder {
		data.Severities = append(data.Severities, htmlSeverity{
			Severity: sev,
			Count:    result.Summary.BySeverity[sev],
		})
	}

	files, byFile := recordsByFile(result)
	for _, file := range files {
		name := file
		if name == "" {
			name = "(no file)"
		}
		data.Files = append(data.Files, htmlFile{Name: name, Records: byFile[file]})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to render HTML report", err)
	}
	return buf.Bytes(), nil
}
