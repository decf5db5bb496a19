package analyzers

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"triage/internal/engine"
)

// ConfigValidator checks configuration files for parse errors and lints.
type ConfigValidator struct {
	logger *slog.Logger
}

// NewConfigValidator creates a configuration validator.
func NewConfigValidator(logger *slog.Logger) *ConfigValidator {
	return &ConfigValidator{logger: logger}
}

// Name returns the registry name.
func (c *ConfigValidator) Name() string { return "config" }

// Analyze validates every configuration-shaped file in the target.
func (c *ConfigValidator) Analyze(ctx context.Context, target engine.Target) ([]engine.ErrorRecord, error) {
	records := make([]engine.ErrorRecord, 0)

	for _, file := range target.Files {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		default:
		}

		kind := configKind(file)
		if kind == "" {
			continue
		}

		content, err := os.ReadFile(target.Abs(file))
		if err != nil {
			c.logger.Debug("skipping unreadable file", "file", file, "error", err)
			continue
		}

		switch kind {
		case "json":
			records = append(records, checkJSON(file, content)...)
		case "yaml":
			records = append(records, checkYAML(file, content)...)
		case "toml":
			records = append(records, checkTOML(file, content)...)
		case "env":
			records = append(records, checkEnv(file, content)...)
		case "dockerfile":
			records = append(records, checkDockerfile(file, content)...)
		}
	}

	return records, nil
}

// configKind classifies a file by name, or returns "" for non-config files.
func configKind(file string) string {
	base := path.Base(file)
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return "env"
	}
	if base == "Dockerfile" || strings.HasPrefix(base, "Dockerfile.") {
		return "dockerfile"
	}

	switch strings.ToLower(path.Ext(file)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	}
	return ""
}

func configRecord(file string, line int, severity engine.Severity, message string) engine.ErrorRecord {
	return engine.ErrorRecord{
		File:     file,
		Line:     line,
		Category: engine.CategoryConfiguration,
		Severity: severity,
		Message:  message,
	}
}

// checkJSON reports syntax errors and duplicated top-level keys.
func checkJSON(file string, content []byte) []engine.ErrorRecord {
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		line := 1
		var syntaxErr *json.SyntaxError
		if stderrors.As(err, &syntaxErr) {
			line = lineAtOffset(content, syntaxErr.Offset)
		}
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			line = lineAtOffset(content, typeErr.Offset)
		}
		return []engine.ErrorRecord{
			configRecord(file, line, engine.SeverityError, "invalid JSON: "+err.Error()),
		}
	}

	var records []engine.ErrorRecord
	for _, dup := range jsonDuplicateKeys(content) {
		records = append(records, configRecord(file, dup.line, engine.SeverityWarning,
			`duplicate key "`+dup.key+`"`))
	}
	return records
}

type duplicateKey struct {
	key  string
	line int
}

// jsonDuplicateKeys finds repeated keys in the top-level object.
// encoding/json keeps the last value silently, which hides config mistakes.
func jsonDuplicateKeys(content []byte) []duplicateKey {
	dec := json.NewDecoder(bytes.NewReader(content))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	seen := make(map[string]bool)
	var dups []duplicateKey

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return dups
		}
		key, ok := keyTok.(string)
		if !ok {
			return dups
		}
		if seen[key] {
			dups = append(dups, duplicateKey{
				key:  key,
				line: lineAtOffset(content, dec.InputOffset()),
			})
		}
		seen[key] = true

		if err := skipJSONValue(dec); err != nil {
			return dups
		}
	}

	return dups
}

func skipJSONValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func lineAtOffset(content []byte, offset int64) int {
	if offset < 0 {
		return 1
	}
	if offset > int64(len(content)) {
		offset = int64(len(content))
	}
	return 1 + bytes.Count(content[:offset], []byte("\n"))
}

var yamlLineRe = regexp.MustCompile(`line (\d+):`)

// checkYAML reports parse errors. yaml.v3 already rejects duplicate keys.
func checkYAML(file string, content []byte) []engine.ErrorRecord {
	var v any
	err := yaml.Unmarshal(content, &v)
	if err == nil {
		return nil
	}

	var typeErr *yaml.TypeError
	if stderrors.As(err, &typeErr) {
		records := make([]engine.ErrorRecord, 0, len(typeErr.Errors))
		for _, msg := range typeErr.Errors {
			records = append(records, configRecord(file, yamlErrorLine(msg),
				engine.SeverityError, "invalid YAML: "+msg))
		}
		return records
	}

	return []engine.ErrorRecord{
		configRecord(file, yamlErrorLine(err.Error()), engine.SeverityError,
			"invalid YAML: "+strings.TrimPrefix(err.Error(), "yaml: ")),
	}
}

func yamlErrorLine(msg string) int {
	m := yamlLineRe.FindStringSubmatch(msg)
	if m == nil {
		return 1
	}
	line, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return line
}

// checkTOML reports parse errors with the decoder's position.
func checkTOML(file string, content []byte) []engine.ErrorRecord {
	var v map[string]any
	err := toml.Unmarshal(content, &v)
	if err == nil {
		return nil
	}

	line := 1
	var parseErr toml.ParseError
	if stderrors.As(err, &parseErr) {
		line = parseErr.Position.Line
	}

	return []engine.ErrorRecord{
		configRecord(file, line, engine.SeverityError, "invalid TOML: "+err.Error()),
	}
}

var envKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkEnv flags lines that are neither blank, comment, nor KEY=VALUE.
func checkEnv(file string, content []byte) []engine.ErrorRecord {
	var records []engine.ErrorRecord

	for i, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		entry := strings.TrimPrefix(trimmed, "export ")
		key, _, found := strings.Cut(entry, "=")
		if !found || !envKeyRe.MatchString(strings.TrimSpace(key)) {
			records = append(records, configRecord(file, i+1, engine.SeverityError,
				"malformed env entry, expected KEY=VALUE"))
		}
	}

	return records
}

// checkDockerfile verifies the first real instruction is FROM or ARG.
func checkDockerfile(file string, content []byte) []engine.ErrorRecord {
	for i, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		instruction := strings.ToUpper(strings.Fields(trimmed)[0])
		if instruction == "FROM" || instruction == "ARG" {
			return nil
		}
		return []engine.ErrorRecord{
			configRecord(file, i+1, engine.SeverityWarning,
				"first instruction should be FROM"),
		}
	}
	return nil
}
