package output

import (
	"bytes"
	"testing"
	"time"
)

func TestDeterministicEncode(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{
			name: "record struct with rounded score",
			input: struct {
				File     string  `json:"file"`
				Line     int     `json:"line"`
				Severity string  `json:"severity"`
				Score    float64 `json:"score"`
			}{File: "src/app.py", Line: 40, Severity: "warning", Score: 0.8765432109},
			want: `{"file":"src/app.py","line":40,"score":0.876543,"severity":"warning"}`,
		},
		{
			name: "nil pointer omitted",
			input: struct {
				Root   string  `json:"root"`
				ScanID *string `json:"scanId,omitempty"`
			}{Root: "/repo"},
			want: `{"root":"/repo"}`,
		},
		{
			name: "zero count omitted",
			input: struct {
				Root  string `json:"root"`
				Total int    `json:"total,omitempty"`
			}{Root: "/repo"},
			want: `{"root":"/repo"}`,
		},
		{
			name: "map keys sorted",
			input: map[string]interface{}{
				"syntax":       4,
				"dependency":   1,
				"runtime-risk": 2,
			},
			want: `{"dependency":1,"runtime-risk":2,"syntax":4}`,
		},
		{
			name: "slice keeps element order",
			input: []struct {
				ID   string  `json:"id"`
				Rate float64 `json:"rate"`
			}{{ID: "cat-b", Rate: 2.3333333333}, {ID: "cat-a", Rate: 0.25}},
			want: `[{"id":"cat-b","rate":2.333333},{"id":"cat-a","rate":0.25}]`,
		},
		{
			name:  "nil value",
			input: nil,
			want:  `null`,
		},
		{
			name:  "empty non-nil slice stays visible",
			input: []string{},
			want:  `[]`,
		},
		{
			name: "empty records array kept in struct",
			input: struct {
				Records []string `json:"records"`
			}{Records: []string{}},
			want: `{"records":[]}`,
		},
		{
			name: "time keeps its RFC3339 form",
			input: struct {
				At time.Time `json:"at"`
			}{At: time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)},
			want: `{"at":"2026-03-11T12:00:00Z"}`,
		},
		{
			name: "zero sized ints omitted",
			input: struct {
				Name       string `json:"name"`
				DurationMs int64  `json:"durationMs,omitempty"`
			}{Name: "test"},
			want: `{"name":"test"}`,
		},
		{
			name: "dashed and unexported fields skipped",
			input: struct {
				Name   string `json:"name"`
				Secret string `json:"-"`
				note   string
			}{Name: "x", Secret: "hidden", note: "internal"},
			want: `{"name":"x"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeterministicEncode(tt.input)
			if err != nil {
				t.Fatalf("DeterministicEncode: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("DeterministicEncode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDeterministicEncodeConsistency(t *testing.T) {
	type record struct {
		File     string  `json:"file"`
		Line     int     `json:"line"`
		Severity string  `json:"severity"`
		Score    float64 `json:"score,omitempty"`
	}

	data := map[string]interface{}{
		"records": []record{
			{File: "src/b.js", Line: 12, Severity: "error", Score: 0.987654321},
			{File: "src/a.js", Line: 3, Severity: "warning", Score: 0.123456789},
		},
		"summary": map[string]interface{}{
			"error":   1,
			"warning": 1,
		},
	}

	first, err := DeterministicEncode(data)
	if err != nil {
		t.Fatalf("DeterministicEncode: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := DeterministicEncode(data)
		if err != nil {
			t.Fatalf("DeterministicEncode: %v", err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i+1, first, next)
		}
	}
}

func TestFloatRounding(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"clamp to 6 decimals", 3.14159265, 3.141593},
		{"already short", 2.5, 2.5},
		{"round up", 2.7182818, 2.718282},
		{"round down", 1.0000004, 1.0},
		{"zero", 0, 0},
		{"negative", -3.14159265, -3.141593},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundFloat(tt.input); got != tt.want {
				t.Errorf("RoundFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{4.2, "4.2"},
		{10.0, "10"},
		{0.000001, "0.000001"},
		{1.23, "1.23"},
		{7.0000001, "7"},
		{0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatFloat(tt.input); got != tt.want {
				t.Errorf("FormatFloat(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeterministicEncodeIndented(t *testing.T) {
	got, err := DeterministicEncodeIndented(map[string]interface{}{
		"root":  "/repo",
		"files": 3,
	}, "  ")
	if err != nil {
		t.Fatalf("DeterministicEncodeIndented: %v", err)
	}

	want := "{\n  \"files\": 3,\n  \"root\": \"/repo\"\n}"
	if string(got) != want {
		t.Errorf("DeterministicEncodeIndented() = %q, want %q", got, want)
	}
}

func TestEncodeNestedResult(t *testing.T) {
	type scanDoc struct {
		Records  []map[string]interface{} `json:"records"`
		Failures []string                 `json:"failures,omitempty"`
		Summary  map[string]interface{}   `json:"summary"`
		ScanID   *string                  `json:"scanId,omitempty"`
	}

	doc := scanDoc{
		Records: []map[string]interface{}{
			{"file": "b.go", "line": 2},
			{"file": "a.go", "line": 9},
		},
		Summary: map[string]interface{}{
			"zebra": "last",
			"alpha": "first",
			"score": 0.6180339,
		},
	}

	got, err := DeterministicEncode(doc)
	if err != nil {
		t.Fatalf("DeterministicEncode: %v", err)
	}

	// Nil failures and scanId are dropped; record order is preserved.
	want := `{"records":[{"file":"b.go","line":2},{"file":"a.go","line":9}],"summary":{"alpha":"first","score":0.618034,"zebra":"last"}}`
	if string(got) != want {
		t.Errorf("DeterministicEncode() = %s, want %s", got, want)
	}
}
