// Package config provides configuration types, defaults and persistence for
// prodtests.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/prodtests/internal/flags"
	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/tracing"
	"github.com/zjrosen/prodtests/internal/ui/styles"
)

// Config holds all configuration options for prodtests.
type Config struct {
	Backend BackendConfig   `mapstructure:"backend"`
	Device  DeviceConfig    `mapstructure:"device"`
	Run     RunConfig       `mapstructure:"run"`
	Log     LogConfig       `mapstructure:"log"`
	History HistoryConfig   `mapstructure:"history"`
	Cache   CacheConfig     `mapstructure:"cache"`
	UI      UIConfig        `mapstructure:"ui"`
	Theme   ThemeConfig     `mapstructure:"theme"`
	Tracing tracing.Config  `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// BackendConfig locates the production-test service.
type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DeviceConfig controls how the device part number is obtained.
type DeviceConfig struct {
	PartNumber     string `mapstructure:"part_number"`      // static override
	PartNumberPath string `mapstructure:"part_number_path"` // GET path relative to backend.url
	PrimePath      string `mapstructure:"prime_path"`       // POST path priming the config cache
}

// RunConfig holds run progress options.
type RunConfig struct {
	FinishDelay time.Duration `mapstructure:"finish_delay"`
}

// LogConfig points at the backend's production test log.
type LogConfig struct {
	Path string `mapstructure:"path"`
}

// HistoryConfig controls the local run history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CacheConfig controls the repository cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// UIConfig holds user interface state and options.
type UIConfig struct {
	// LastSelected is the wire id of the last selected test set.
	LastSelected  string `mapstructure:"last_selected"`
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
}

// ThemeConfig holds theme customization options.
type ThemeConfig struct {
	// Preset loads a built-in palette as the base (optional).
	Preset string `mapstructure:"preset"`

	// Colors overrides individual color tokens. Supports nested YAML
	// (status: {error: "#F00"}) and quoted dot notation ("status.error").
	Colors map[string]any `mapstructure:"colors"`
}

// FlattenedColors returns the Colors map flattened to dot-notation keys.
func (t ThemeConfig) FlattenedColors() map[string]string {
	result := make(map[string]string)
	flattenColors("", t.Colors, result)
	return result
}

func flattenColors(prefix string, m map[string]any, result map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			result[key] = val
		case map[string]any:
			flattenColors(key, val, result)
		case map[any]any:
			converted := make(map[string]any, len(val))
			for mk, mv := range val {
				if s, ok := mk.(string); ok {
					converted[s] = mv
				}
			}
			flattenColors(key, converted, result)
		}
	}
}

// StylesTheme converts to the styles package representation.
func (t ThemeConfig) StylesTheme() styles.ThemeConfig {
	return styles.ThemeConfig{Preset: t.Preset, Colors: t.FlattenedColors()}
}

// DefaultConfigDir returns ~/.config/prodtests.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prodtests"
	}
	return filepath.Join(home, ".config", "prodtests")
}

// DefaultHistoryPath returns the default run history database path.
func DefaultHistoryPath() string {
	return filepath.Join(DefaultConfigDir(), "history.db")
}

// DefaultTracesFilePath returns the default traces file path.
func DefaultTracesFilePath() string {
	return filepath.Join(DefaultConfigDir(), "traces", "traces.jsonl")
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// Defaults returns the default configuration.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()

	return Config{
		Backend: BackendConfig{
			URL:     "http://localhost:8888/webds",
			Timeout: 10 * time.Second,
		},
		Run: RunConfig{
			FinishDelay: 1500 * time.Millisecond,
		},
		Log: LogConfig{
			Path: "/var/log/syna/production_tests.log",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		UI: UIConfig{
			ShowStatusBar: true,
		},
		Tracing: tc,
		Flags: map[string]bool{
			flags.FlagRunHistory:    true,
			flags.FlagReflashUpload: true,
		},
	}
}

// Validate checks the configuration for values the app cannot run with.
func (c Config) Validate() error {
	if err := ValidateBackend(c.Backend); err != nil {
		return err
	}
	if c.Run.FinishDelay < 0 {
		return fmt.Errorf("run.finish_delay must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	return ValidateTracing(c.Tracing)
}

// ValidateBackend checks backend URL and timeout.
func ValidateBackend(b BackendConfig) error {
	if b.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	u, err := url.Parse(b.URL)
	if err != nil {
		return fmt.Errorf("backend.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.url must be http or https, got %q", b.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("backend.url has no host: %q", b.URL)
	}
	if b.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	return nil
}

// ValidateTracing checks tracing exporter and sample rate.
func ValidateTracing(tc tracing.Config) error {
	if !tc.Enabled {
		return nil
	}
	switch tc.Exporter {
	case "", "none", "stdout":
	case "file":
		if tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required for the file exporter")
		}
	case "otlp":
		if tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("tracing.exporter must be one of none, file, stdout, otlp; got %q", tc.Exporter)
	}
	if tc.SampleRate < 0 || tc.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# prodtests configuration

# Production test service
backend:
  url: http://localhost:8888/webds
  timeout: 10s              # Per-request timeout (the event feed is not limited)

# Device identity
device:
  # part_number: S3908-15.0.0     # Static part number (skips the lookup below)
  # part_number_path: device/part-number  # GET path returning the part number
  # prime_path: config/prime             # POST path priming the config cache

# Run progress
run:
  finish_delay: 1500ms      # Pause on 100% before showing the pass screen

# Backend production test log, shown with ctrl+l
log:
  path: /var/log/syna/production_tests.log

# Local history of run attempts ('prodtests history')
history:
  enabled: true
  # path: ~/.config/prodtests/history.db

# Fetched repositories are cached per part number
cache:
  ttl: 10m

ui:
  show_status_bar: true
  last_selected: ""         # Written by prodtests when a test set is chosen

# Theme configuration
theme:
  # preset: nord
  #
  # Available presets:
  #   default        - Default palette
  #   dracula        - Dark theme with vibrant colors
  #   nord           - Arctic, north-bluish palette
  #   high-contrast  - High contrast for factory floor displays
  #
  # colors:
  #   status.error: "#FF0000"
  #   progress.end: "#00FF00"

# Tracing of backend calls and run attempts
# tracing:
#   enabled: false
#   exporter: file          # none, file, stdout, otlp
#   file_path: ~/.config/prodtests/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0

flags:
  run-history: true
  reflash-upload: true
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
