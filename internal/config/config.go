// Package config provides configuration types and defaults for strand.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/tracing"
)

// CacheConfig holds artifact cache settings.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TTL        time.Duration `mapstructure:"ttl"`         // 0 = never expire
	MaxEntries int           `mapstructure:"max_entries"` // 0 = unbounded
	Sliding    bool          `mapstructure:"sliding"`     // reset expiry on every hit
}

// LoaderConfig holds system loading settings.
type LoaderConfig struct {
	Lazy                bool          `mapstructure:"lazy"`
	PreloadInBackground bool          `mapstructure:"preload_in_background"`
	BackgroundPause     time.Duration `mapstructure:"background_pause"`
	CriticalPath        []string      `mapstructure:"critical_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Level   string `mapstructure:"level"` // debug, info, warn, error
}

// WatchConfig holds source file watching settings.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config holds all configuration options for strand.
type Config struct {
	// ComponentDirs lists directories scanned for component and system
	// definition files.
	ComponentDirs []string `mapstructure:"component_dirs"`

	Cache   CacheConfig    `mapstructure:"cache"`
	Loader  LoaderConfig   `mapstructure:"loader"`
	Log     LogConfig      `mapstructure:"log"`
	Watch   WatchConfig    `mapstructure:"watch"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		ComponentDirs: []string{"."},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        10 * time.Minute,
			MaxEntries: 256,
			Sliding:    false,
		},
		Loader: LoaderConfig{
			Lazy:                false,
			PreloadInBackground: false,
			BackgroundPause:     10 * time.Millisecond,
		},
		Log: LogConfig{
			Enabled: false,
			Level:   "info",
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: 250 * time.Millisecond,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// DefaultLogPath returns ~/.config/strand/strand.log, or empty string if the
// home directory is unavailable.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "strand", "strand.log")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "strand", "traces", "traces.jsonl")
}

// Validate checks the configuration for errors. Empty values use defaults.
func (c Config) Validate() error {
	if err := ValidateCache(c.Cache); err != nil {
		return err
	}
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	return nil
}

// ValidateCache checks cache configuration for errors.
func ValidateCache(cache CacheConfig) error {
	if cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %v", cache.TTL)
	}
	if cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative, got %d", cache.MaxEntries)
	}
	return nil
}

// ValidateLog checks logging configuration for errors.
func ValidateLog(lc LogConfig) error {
	switch lc.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", lc.Level)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	if tc.Exporter != "" {
		switch tc.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
		}
	}

	if tc.Enabled {
		if tc.Exporter == "file" && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == "otlp" && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Strand Configuration

# Directories scanned for component and system definition files
component_dirs:
  - .

# Compiled artifact cache
cache:
  enabled: true
  ttl: 10m          # 0 = entries never expire
  max_entries: 256  # 0 = unbounded; LRU eviction at capacity
  sliding: false    # reset expiry on every hit

# System loading
loader:
  lazy: false                  # defer non-critical components
  preload_in_background: false # materialize deferred components in the background
  background_pause: 10ms      # pause between background items
  # critical_path:             # components needed immediately after a lazy load
  #   - user
  #   - order

# Logging
log:
  enabled: false
  # path: ~/.config/strand/strand.log
  level: info  # debug, info, warn, error

# Watch component source files and invalidate caches on change
watch:
  enabled: false
  debounce: 250ms

# Distributed tracing for pipeline operations
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/strand/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
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
