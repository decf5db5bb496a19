package analyzers

import (
	"context"
	"strings"
	"testing"

	"triage/internal/engine"
	"triage/internal/logging"
)

func TestConfigKind(t *testing.T) {
	testCases := []struct {
		file string
		want string
	}{
		{"config.json", "json"},
		{"deploy/values.yaml", "yaml"},
		{"ci.yml", "yaml"},
		{"Cargo.toml", "toml"},
		{".env", "env"},
		{".env.local", "env"},
		{"Dockerfile", "dockerfile"},
		{"Dockerfile.dev", "dockerfile"},
		{"main.go", ""},
		{"README.md", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.file, func(t *testing.T) {
			if got := configKind(tc.file); got != tc.want {
				t.Errorf("configKind(%q) = %q, want %q", tc.file, got, tc.want)
			}
		})
	}
}

func TestCheckJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		records := checkJSON("a.json", []byte(`{"name": "x", "port": 8080}`))
		if len(records) != 0 {
			t.Errorf("got %d records for valid JSON: %+v", len(records), records)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		records := checkJSON("a.json", []byte("{\n  \"name\": ,\n}\n"))
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0].Severity != engine.SeverityError {
			t.Errorf("Severity = %q, want error", records[0].Severity)
		}
		if !strings.HasPrefix(records[0].Message, "invalid JSON") {
			t.Errorf("Message = %q, want invalid JSON prefix", records[0].Message)
		}
		if records[0].Line != 2 {
			t.Errorf("Line = %d, want 2", records[0].Line)
		}
	})

	t.Run("duplicate top-level key", func(t *testing.T) {
		content := "{\n  \"name\": \"x\",\n  \"name\": \"y\"\n}\n"
		records := checkJSON("a.json", []byte(content))
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1: %+v", len(records), records)
		}
		if records[0].Severity != engine.SeverityWarning {
			t.Errorf("Severity = %q, want warning", records[0].Severity)
		}
		if records[0].Message != `duplicate key "name"` {
			t.Errorf("Message = %q", records[0].Message)
		}
		if records[0].Line != 3 {
			t.Errorf("Line = %d, want 3", records[0].Line)
		}
	})

	t.Run("nested duplicates not reported", func(t *testing.T) {
		content := `{"outer": {"a": 1, "a": 2}}`
		records := checkJSON("a.json", []byte(content))
		if len(records) != 0 {
			t.Errorf("nested duplicate reported: %+v", records)
		}
	})
}

func TestCheckYAML(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		records := checkYAML("a.yaml", []byte("name: x\nport: 8080\n"))
		if len(records) != 0 {
			t.Errorf("got %d records for valid YAML: %+v", len(records), records)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		records := checkYAML("a.yaml", []byte("a: [1, 2\n"))
		if len(records) == 0 {
			t.Fatal("expected records for invalid YAML")
		}
		if records[0].Severity != engine.SeverityError {
			t.Errorf("Severity = %q, want error", records[0].Severity)
		}
		if !strings.HasPrefix(records[0].Message, "invalid YAML") {
			t.Errorf("Message = %q, want invalid YAML prefix", records[0].Message)
		}
	})

	t.Run("duplicate key", func(t *testing.T) {
		records := checkYAML("a.yaml", []byte("a: 1\na: 2\n"))
		if len(records) == 0 {
			t.Fatal("expected records for duplicate YAML key")
		}
		found := false
		for _, r := range records {
			if strings.Contains(r.Message, "already defined") {
				found = true
			}
		}
		if !found {
			t.Errorf("no duplicate-key record in %+v", records)
		}
	})
}

func TestCheckTOML(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		records := checkTOML("a.toml", []byte("a = 1\n\n[server]\nhost = \"localhost\"\n"))
		if len(records) != 0 {
			t.Errorf("got %d records for valid TOML: %+v", len(records), records)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		records := checkTOML("a.toml", []byte("a =\n"))
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0].Severity != engine.SeverityError {
			t.Errorf("Severity = %q, want error", records[0].Severity)
		}
		if !strings.HasPrefix(records[0].Message, "invalid TOML") {
			t.Errorf("Message = %q, want invalid TOML prefix", records[0].Message)
		}
	})
}

func TestCheckEnv(t *testing.T) {
	content := strings.Join([]string{
		"# comment",
		"",
		"PORT=8080",
		"export DEBUG=true",
		"NOT A VALID LINE",
		"1BAD=value",
	}, "\n")

	records := checkEnv(".env", []byte(content))
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}
	if records[0].Line != 5 || records[1].Line != 6 {
		t.Errorf("lines = %d,%d, want 5,6", records[0].Line, records[1].Line)
	}
	for _, r := range records {
		if r.Severity != engine.SeverityError {
			t.Errorf("Severity = %q, want error", r.Severity)
		}
	}
}

func TestCheckDockerfile(t *testing.T) {
	testCases := []struct {
		name      string
		content   string
		wantCount int
	}{
		{"from first", "# build image\nFROM alpine:3.20\nRUN apk add curl\n", 0},
		{"arg before from", "ARG VERSION=1\nFROM alpine:${VERSION}\n", 0},
		{"run first", "RUN apk add curl\nFROM alpine\n", 1},
		{"empty", "\n# only comments\n", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := checkDockerfile("Dockerfile", []byte(tc.content))
			if len(records) != tc.wantCount {
				t.Errorf("got %d records, want %d: %+v", len(records), tc.wantCount, records)
			}
		})
	}
}

func TestConfigValidatorAnalyze(t *testing.T) {
	dir := t.TempDir()
	writeTargetFile(t, dir, "ok.json", `{"a": 1}`)
	writeTargetFile(t, dir, "broken.yaml", "a: [1, 2\n")
	writeTargetFile(t, dir, "main.go", "package main\n")

	v := NewConfigValidator(logging.NewDiscardLogger())
	if v.Name() != "config" {
		t.Fatalf("Name = %q, want config", v.Name())
	}

	records, err := v.Analyze(context.Background(), engine.Target{
		Root:  dir,
		Files: []string{"broken.yaml", "main.go", "ok.json"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(records) == 0 {
		t.Fatal("expected records for broken.yaml")
	}
	for _, r := range records {
		if r.File != "broken.yaml" {
			t.Errorf("record file = %q, want broken.yaml", r.File)
		}
		if r.Category != engine.CategoryConfiguration {
			t.Errorf("Category = %q, want configuration", r.Category)
		}
	}
}
