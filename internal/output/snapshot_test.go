package output

import (
	"testing"
)

func TestNormalizeForSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name: "remove scanId",
			input: `{
				"records": [],
				"scanId": "0f6f1a2b",
				"root": "/repo"
			}`,
			want: `{"records":[],"root":"/repo"}`,
		},
		{
			name: "remove startedAt and durationMs",
			input: `{
				"root": "/repo",
				"startedAt": "2024-01-01T00:00:00Z",
				"durationMs": 123
			}`,
			want: `{"root":"/repo"}`,
		},
		{
			name: "remove generatedAt",
			input: `{
				"root": "/repo",
				"generatedAt": "2024-01-01T00:00:00Z"
			}`,
			want: `{"root":"/repo"}`,
		},
		{
			name: "remove per-record id and timestamp",
			input: `{
				"records": [
					{"file": "a.go", "id": "r1", "timestamp": "2024-01-01T00:00:00Z"},
					{"file": "b.go", "id": "r2", "timestamp": "2024-01-01T00:00:01Z"}
				]
			}`,
			want: `{"records":[{"file":"a.go"},{"file":"b.go"}]}`,
		},
		{
			name:    "invalid json",
			input:   `{not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeForSnapshot([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeForSnapshot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if string(got) != tt.want {
				t.Errorf("NormalizeForSnapshot() = %s, want %s", string(got), tt.want)
			}
		})
	}
}

func TestCompareSnapshots(t *testing.T) {
	a := []byte(`{"records":[{"file":"a.go","line":1}],"scanId":"one","startedAt":"2024-01-01T00:00:00Z"}`)
	b := []byte(`{"records":[{"file":"a.go","line":1}],"scanId":"two","startedAt":"2024-06-15T12:30:00Z"}`)

	equal, msg := CompareSnapshots(a, b)
	if !equal {
		t.Errorf("CompareSnapshots() = false (%s), want true", msg)
	}

	c := []byte(`{"records":[{"file":"b.go","line":1}],"scanId":"three"}`)
	equal, _ = CompareSnapshots(a, c)
	if equal {
		t.Error("CompareSnapshots() = true for differing records, want false")
	}
}

func TestSnapshotEqual(t *testing.T) {
	type out struct {
		Records []string `json:"records"`
		ScanID  string   `json:"scanId"`
	}

	a := out{Records: []string{"x"}, ScanID: "a"}
	b := out{Records: []string{"x"}, ScanID: "b"}

	if !SnapshotEqual(a, b) {
		t.Error("SnapshotEqual should ignore scanId")
	}

	c := out{Records: []string{"y"}, ScanID: "a"}
	if SnapshotEqual(a, c) {
		t.Error("SnapshotEqual should detect differing records")
	}
}

func TestPruneField(t *testing.T) {
	data := map[string]interface{}{
		"summary": map[string]interface{}{
			"generatedAt": "2024-01-01T00:00:00Z",
			"total":       3,
		},
		"records": []interface{}{
			map[string]interface{}{"id": "r1", "file": "a.go"},
			map[string]interface{}{"id": "r2", "file": "b.go"},
		},
	}

	pruneField(data, []string{"summary", "generatedAt"})

	summary := data["summary"].(map[string]interface{})
	if _, ok := summary["generatedAt"]; ok {
		t.Error("nested field should have been removed")
	}
	if summary["total"] != 3 {
		t.Error("sibling field should be untouched")
	}

	pruneField(data, []string{"records", "id"})

	for i, item := range data["records"].([]interface{}) {
		record := item.(map[string]interface{})
		if _, ok := record["id"]; ok {
			t.Errorf("records[%d] should have lost its id", i)
		}
		if record["file"] == "" {
			t.Errorf("records[%d] lost its file field", i)
		}
	}

	// Missing paths are a no-op.
	pruneField(data, []string{"missing", "key"})
	pruneField(data, []string{"summary", "missing"})
}
