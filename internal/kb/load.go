package kb

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"triage/internal/errors"
)

// catalogFile is the on-disk catalog shape shared by every format.
type catalogFile struct {
	Patterns  []Pattern      `json:"patterns" yaml:"patterns" toml:"patterns"`
	Solutions []Solution     `json:"solutions" yaml:"solutions" toml:"solutions"`
	Practices []BestPractice `json:"practices" yaml:"practices" toml:"practices"`
}

// LoadDir merges catalog files from dir into the catalog. Entries with an
// ID already present replace the existing entry. A file that fails to parse
// is skipped with a warning; the rest of the directory still loads.
func (c *Catalog) LoadDir(dir string, logger *slog.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewPathNotFound(dir)
		}
		return errors.NewStorageFailure("read catalog dir", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch ext {
		case ".yaml", ".yml", ".json", ".toml":
		default:
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable catalog file", "file", path, "error", err)
			continue
		}

		var file catalogFile
		if err := unmarshalCatalog(ext, data, &file); err != nil {
			logger.Warn("skipping malformed catalog file", "file", path, "error", err)
			continue
		}

		c.merge(entry.Name(), file, logger)
		loaded++
	}

	for _, s := range c.Solutions() {
		if _, ok := c.patterns[s.PatternID]; !ok {
			logger.Debug("solution references unknown pattern",
				"solution", s.ID, "pattern", s.PatternID)
		}
	}

	logger.Debug("catalog load complete",
		"dir", dir,
		"files", loaded,
		"patterns", len(c.patterns),
		"solutions", len(c.solutions),
		"practices", len(c.practices))

	return nil
}

func unmarshalCatalog(ext string, data []byte, file *catalogFile) error {
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, file)
	case ".json":
		return json.Unmarshal(data, file)
	case ".toml":
		return toml.Unmarshal(data, file)
	}
	return nil
}

// merge folds one parsed file into the catalog with replace-on-collision.
func (c *Catalog) merge(source string, file catalogFile, logger *slog.Logger) {
	for _, p := range file.Patterns {
		if p.ID == "" {
			logger.Warn("dropping pattern without id", "file", source)
			continue
		}
		if _, exists := c.patterns[p.ID]; exists {
			logger.Debug("replacing pattern", "id", p.ID, "file", source)
		}
		c.patterns[p.ID] = p
	}

	for _, s := range file.Solutions {
		if s.ID == "" {
			logger.Warn("dropping solution without id", "file", source)
			continue
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			logger.Warn("clamping solution confidence",
				"id", s.ID, "confidence", s.Confidence)
			s.Confidence = clamp01(s.Confidence)
		}
		if _, exists := c.solutions[s.ID]; exists {
			logger.Debug("replacing solution", "id", s.ID, "file", source)
		}
		c.solutions[s.ID] = s
	}

	for _, b := range file.Practices {
		if b.ID == "" {
			logger.Warn("dropping practice without id", "file", source)
			continue
		}
		if _, exists := c.practices[b.ID]; exists {
			logger.Debug("replacing practice", "id", b.ID, "file", source)
		}
		c.practices[b.ID] = b
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
