package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"triage/internal/errors"
	"triage/internal/logging"
)

// Config represents the complete triage configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Monitor MonitorConfig `json:"monitor" mapstructure:"monitor"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
	KB      KBConfig      `json:"kb" mapstructure:"kb"`
	Report  ReportConfig  `json:"report" mapstructure:"report"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls file discovery and analyzer selection
type ScanConfig struct {
	IgnorePatterns   []string        `json:"ignorePatterns" mapstructure:"ignorePatterns"`
	MaxFileSizeBytes int64           `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	FollowSymlinks   bool            `json:"followSymlinks" mapstructure:"followSymlinks"`
	Analyzers        map[string]bool `json:"analyzers" mapstructure:"analyzers"`
}

// AnalyzerEnabled reports whether the named analyzer should run.
// Analyzers are enabled unless explicitly disabled.
func (s ScanConfig) AnalyzerEnabled(name string) bool {
	enabled, ok := s.Analyzers[name]
	if !ok {
		return true
	}
	return enabled
}

// MonitorConfig controls filesystem watch sessions
type MonitorConfig struct {
	DebounceMs     int      `json:"debounceMs" mapstructure:"debounceMs"`
	IgnorePatterns []string `json:"ignorePatterns" mapstructure:"ignorePatterns"`
	EventBuffer    int      `json:"eventBuffer" mapstructure:"eventBuffer"`
}

// MetricsConfig controls the error event store
type MetricsConfig struct {
	DatabasePath  string `json:"databasePath" mapstructure:"databasePath"`
	RetentionDays int    `json:"retentionDays" mapstructure:"retentionDays"`
}

// KBConfig controls knowledge base catalog loading
type KBConfig struct {
	CatalogDir string `json:"catalogDir" mapstructure:"catalogDir"`
}

// ReportConfig controls report generation defaults
type ReportConfig struct {
	DefaultFormat     string `json:"defaultFormat" mapstructure:"defaultFormat"`
	IncludeTimestamps bool   `json:"includeTimestamps" mapstructure:"includeTimestamps"`
	Compress          bool   `json:"compress" mapstructure:"compress"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// reportFormats lists the formats the report generator understands.
// Kept here so config validation does not depend on the report package.
var reportFormats = []string{"json", "sarif", "markdown", "html", "text"}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			IgnorePatterns: []string{
				"node_modules", ".git", "dist", "build", "vendor", ".idea", ".vscode",
			},
			MaxFileSizeBytes: 1000000,
			FollowSymlinks:   false,
			Analyzers:        map[string]bool{},
		},
		Monitor: MonitorConfig{
			DebounceMs:  500,
			EventBuffer: 16,
		},
		Metrics: MetricsConfig{
			DatabasePath:  filepath.Join(".triage", "metrics.db"),
			RetentionDays: 0,
		},
		KB: KBConfig{
			CatalogDir: "",
		},
		Report: ReportConfig{
			DefaultFormat:     "json",
			IncludeTimestamps: false,
			Compress:          false,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// Load reads configuration for a project root.
// Looks for triage.{yaml,yml,json,toml} in root, applies TRIAGE_* environment
// overrides, and falls back to defaults when no file exists.
func Load(root string) (*Config, error) {
	v := newViper()
	v.SetConfigName("triage")
	v.AddConfigPath(root)

	return readConfig(v)
}

// LoadFile reads configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewPathNotFound(path)
	}

	v := newViper()
	v.SetConfigFile(path)

	return readConfig(v)
}

// envKeys are the settings that TRIAGE_* environment variables may override,
// e.g. TRIAGE_MONITOR_DEBOUNCEMS or TRIAGE_LOGGING_LEVEL. Unmarshal only sees
// environment values for explicitly bound keys.
var envKeys = []string{
	"scan.maxFileSizeBytes",
	"scan.followSymlinks",
	"monitor.debounceMs",
	"monitor.eventBuffer",
	"metrics.databasePath",
	"metrics.retentionDays",
	"kb.catalogDir",
	"report.defaultFormat",
	"report.includeTimestamps",
	"report.compress",
	"logging.format",
	"logging.level",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

func readConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(errors.ValidationFailed, "reading config file", err)
		}
		// No config file; environment overrides still apply below.
	}

	// Unmarshal over the defaults so unset keys keep their default values.
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.ValidationFailed, "parsing config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to <root>/triage.json
func (c *Config) Save(root string) error {
	configPath := filepath.Join(root, "triage.json")

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Monitor.DebounceMs <= 0 {
		return errors.NewValidationFailed("monitor.debounceMs must be positive").
			WithDetail("field", "monitor.debounceMs").
			WithDetail("value", c.Monitor.DebounceMs)
	}
	if c.Monitor.EventBuffer < 1 {
		return errors.NewValidationFailed("monitor.eventBuffer must be at least 1").
			WithDetail("field", "monitor.eventBuffer").
			WithDetail("value", c.Monitor.EventBuffer)
	}
	if c.Scan.MaxFileSizeBytes <= 0 {
		return errors.NewValidationFailed("scan.maxFileSizeBytes must be positive").
			WithDetail("field", "scan.maxFileSizeBytes").
			WithDetail("value", c.Scan.MaxFileSizeBytes)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return errors.NewValidationFailed("logging.level must be one of debug, info, warn, error").
			WithDetail("field", "logging.level").
			WithDetail("value", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return errors.NewValidationFailed("logging.format must be text or json").
			WithDetail("field", "logging.format").
			WithDetail("value", c.Logging.Format)
	}
	if !validReportFormat(c.Report.DefaultFormat) {
		return errors.NewValidationFailed("report.defaultFormat is not a supported format").
			WithDetail("field", "report.defaultFormat").
			WithDetail("value", c.Report.DefaultFormat)
	}
	return nil
}

// MonitorIgnorePatterns returns the monitor ignore list, inheriting the scan
// list when the monitor section does not set its own.
func (c *Config) MonitorIgnorePatterns() []string {
	if len(c.Monitor.IgnorePatterns) > 0 {
		return c.Monitor.IgnorePatterns
	}
	return c.Scan.IgnorePatterns
}

func validReportFormat(format string) bool {
	for _, f := range reportFormats {
		if f == format {
			return true
		}
	}
	return false
}
