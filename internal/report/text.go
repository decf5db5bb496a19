package report

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"triage/internal/engine"
)

func renderText(result *engine.ScanResult, opts Options) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Scan of %s\n", result.Root)
	if opts.IncludeTimestamps {
		fmt.Fprintf(&buf, "Scan %s started %s, took %d ms\n",
			result.ScanID, result.StartedAt.UTC().Format(time.RFC3339), result.DurationMs)
	}
	buf.WriteByte('\n')

	if len(result.Records) == 0 {
		buf.WriteString("No findings.\n")
	} else {
		tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tLINE\tSEVERITY\tCATEGORY\tMESSAGE")
		for _, rec := range result.Records {
			file := rec.File
			if file == "" {
				file = "-"
			}
			line := "-"
			if rec.Line > 0 {
				line = strconv.Itoa(rec.Line)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				file, line, rec.Severity, rec.Category, rec.Message)
		}
		tw.Flush()
	}

	fmt.Fprintf(&buf, "\n%d finding(s)", result.Summary.Total)
	if result.Summary.Total > 0 {
		buf.WriteString(" (")
		first := true
		for _, sev := range severityOrder {
			if n := result.Summary.BySeverity[sev]; n > 0 {
				if !first {
					buf.WriteString(", ")
				}
				fmt.Fprintf(&buf, "%d %s", n, sev)
				first = false
			}
		}
		buf.WriteString(")")
	}
	fmt.Fprintf(&buf, " in %d of %d scanned file(s)\n",
		result.Summary.FilesWithRecords, result.FilesScanned)

	for _, f := range result.Failures {
		fmt.Fprintf(&buf, "analyzer %s failed: %s\n", f.Analyzer, f.Message)
	}

	return buf.Bytes(), nil
}
