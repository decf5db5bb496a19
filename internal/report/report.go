// Package report renders scan results into the supported output formats.
// Rendering is deterministic: the same result and options produce
// byte-identical output, which keeps reports diffable and cacheable.
package report

import (
	"bytes"
	"sort"
	"time"

	"github.com/klauspost/compress/gzip"

	"triage/internal/engine"
	"triage/internal/errors"
)

// Formats lists the supported report formats in display order.
var Formats = []string{"json", "sarif", "markdown", "html", "text"}

// Options selects the format and rendering behavior for a report.
type Options struct {
	// Format is one of Formats.
	Format string
	// IncludeTimestamps emits scan identity and wall-clock fields. They
	// are omitted by default so identical findings render identically
	// across runs.
	IncludeTimestamps bool
	// Compress gzips the rendered report with a zeroed header.
	Compress bool
}

// Generate renders the scan result in the requested format.
func Generate(result *engine.ScanResult, opts Options) ([]byte, error) {
	if result == nil {
		return nil, errors.NewValidationFailed("scan result is required")
	}

	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case "json":
		data, err = renderJSON(result, opts)
	case "sarif":
		data, err = renderSARIF(result)
	case "markdown":
		data, err = renderMarkdown(result, opts)
	case "html":
		data, err = renderHTML(result, opts)
	case "text":
		data, err = renderText(result, opts)
	default:
		return nil, errors.NewFormatUnsupported(opts.Format, Formats)
	}
	if err != nil {
		return nil, err
	}

	if opts.Compress {
		return compress(data)
	}
	return data, nil
}

// compress gzips data deterministically: no name, no comment, zero mtime.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.ModTime = time.Time{}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, errors.Wrap(errors.InternalError, "failed to compress report", err)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to compress report", err)
	}
	return buf.Bytes(), nil
}

// recordsByFile groups records by file, keeping the result's record order
// within each file. Records with no file land under the empty key.
func recordsByFile(result *engine.ScanResult) (files []string, byFile map[string][]engine.ErrorRecord) {
	byFile = make(map[string][]engine.ErrorRecord)
	for _, rec := range result.Records {
		byFile[rec.File] = append(byFile[rec.File], rec)
	}
	files = make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, byFile
}

// severityOrder ranks severities for summary rows, most serious first.
var severityOrder = []engine.Severity{
	engine.SeverityCritical,
	engine.SeverityError,
	engine.SeverityWarning,
	engine.SeverityInfo,
}
