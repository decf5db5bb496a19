package analyzers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"triage/internal/config"
	"triage/internal/engine"
	"triage/internal/logging"
)

func writeTargetFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestParseSupported(t *testing.T) {
	testCases := []struct {
		lang string
		want bool
	}{
		{"go", true},
		{"javascript", true},
		{"typescript", true},
		{"python", true},
		{"ruby", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.lang, func(t *testing.T) {
			if got := parseSupported(tc.lang); got != tc.want {
				t.Errorf("parseSupported(%q) = %v, want %v", tc.lang, got, tc.want)
			}
		})
	}
}

func TestMarkerRecords(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		wantCount   int
		wantMessage string
		wantLine    int
	}{
		{
			name:        "todo marker",
			content:     "x = 1\n# TODO: fix rounding\ny = 2\n",
			wantCount:   1,
			wantMessage: `unresolved marker "TODO"`,
			wantLine:    2,
		},
		{
			name:        "fixme marker",
			content:     "// FIXME handle nil\n",
			wantCount:   1,
			wantMessage: `unresolved marker "FIXME"`,
			wantLine:    1,
		},
		{
			name:        "xxx marker",
			content:     "pass  # XXX temporary\n",
			wantCount:   1,
			wantMessage: `unresolved marker "XXX"`,
			wantLine:    1,
		},
		{
			name:      "one record per line",
			content:   "# TODO and FIXME on one line\n",
			wantCount: 1,
		},
		{
			name:      "no false positive on substring",
			content:   "todos = load()\nmastodon = 1\n",
			wantCount: 0,
		},
		{
			name:      "clean file",
			content:   "x = 1\n",
			wantCount: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := markerRecords("app.py", []byte(tc.content), "python")

			if len(records) != tc.wantCount {
				t.Fatalf("got %d records, want %d: %+v", len(records), tc.wantCount, records)
			}
			if tc.wantCount == 0 {
				return
			}
			if tc.wantMessage != "" && records[0].Message != tc.wantMessage {
				t.Errorf("Message = %q, want %q", records[0].Message, tc.wantMessage)
			}
			if tc.wantLine != 0 && records[0].Line != tc.wantLine {
				t.Errorf("Line = %d, want %d", records[0].Line, tc.wantLine)
			}
			if records[0].Severity != engine.SeverityWarning {
				t.Errorf("Severity = %q, want warning", records[0].Severity)
			}
			if records[0].Category != engine.CategorySyntax {
				t.Errorf("Category = %q, want syntax", records[0].Category)
			}
		})
	}
}

func TestSyntaxAnalyzerMarkers(t *testing.T) {
	dir := t.TempDir()
	writeTargetFile(t, dir, "notes.md", "intro\nTODO write docs\n")

	a := NewSyntaxAnalyzer(logging.NewDiscardLogger())
	if a.Name() != "syntax" {
		t.Fatalf("Name = %q, want syntax", a.Name())
	}

	records, err := a.Analyze(context.Background(), engine.Target{
		Root:  dir,
		Files: []string{"notes.md"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(records), records)
	}
	if records[0].File != "notes.md" || records[0].Line != 2 {
		t.Errorf("record position = %s:%d, want notes.md:2", records[0].File, records[0].Line)
	}
}

func TestEngineScanWithSyntaxAnalyzer(t *testing.T) {
	dir := t.TempDir()
	writeTargetFile(t, dir, "notes.md", "intro\nTODO write docs\n")

	eng := engine.New(config.DefaultConfig().Scan, logging.NewDiscardLogger())
	eng.Register(NewSyntaxAnalyzer(logging.NewDiscardLogger()))

	result, err := eng.Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if result.FilesScanned != 1 {
		t.Errorf("FilesScanned = %d, want 1", result.FilesScanned)
	}
	if len(result.Records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(result.Records), result.Records)
	}
	rec := result.Records[0]
	if rec.File != "notes.md" || rec.Line != 2 {
		t.Errorf("record position = %s:%d, want notes.md:2", rec.File, rec.Line)
	}
	if rec.Category != engine.CategorySyntax || rec.Severity != engine.SeverityWarning {
		t.Errorf("record class = %s/%s, want syntax/warning", rec.Category, rec.Severity)
	}
	if rec.Source != "syntax" {
		t.Errorf("Source = %q, want syntax", rec.Source)
	}
	if rec.ID == "" || rec.Timestamp.IsZero() {
		t.Error("scan left record id or timestamp unset")
	}
}

func TestSyntaxAnalyzerSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()

	a := NewSyntaxAnalyzer(logging.NewDiscardLogger())
	records, err := a.Analyze(context.Background(), engine.Target{
		Root:  dir,
		Files: []string{"gone.go"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records for missing file, want 0", len(records))
	}
}

func TestTruncateLine(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}

	if got := truncateLine("  short  "); got != "short" {
		t.Errorf("truncateLine trimmed = %q, want %q", got, "short")
	}
	if got := truncateLine(string(long)); len(got) != 160 {
		t.Errorf("truncateLine cap = %d chars, want 160", len(got))
	}
}
