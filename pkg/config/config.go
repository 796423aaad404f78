// Package config provides configuration file support for fsnap.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jvs-project/fsnap/pkg/errclass"
	"github.com/jvs-project/fsnap/pkg/fsutil"
	"github.com/jvs-project/fsnap/pkg/logging"
	"github.com/jvs-project/fsnap/pkg/pathutil"
)

// Config represents the fsnap configuration.
type Config struct {
	Capture  CaptureConfig  `json:"capture" yaml:"capture"`
	History  HistoryConfig  `json:"history" yaml:"history"`
	Watch    WatchConfig    `json:"watch" yaml:"watch"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Webhooks WebhooksConfig `json:"webhooks" yaml:"webhooks"`
}

// CaptureConfig configures directory walks.
type CaptureConfig struct {
	FollowSymlinks   bool     `json:"follow_symlinks" yaml:"follow_symlinks"`
	Workers          int      `json:"workers" yaml:"workers"`
	Exclude          []string `json:"exclude" yaml:"exclude"`
	NormalizeUnicode bool     `json:"normalize_unicode" yaml:"normalize_unicode"`
}

// HistoryConfig configures snapshot retention. MaxSnapshots 0 keeps everything.
type HistoryConfig struct {
	MaxSnapshots int `json:"max_snapshots" yaml:"max_snapshots"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce    string `json:"debounce" yaml:"debounce"`
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// WebhooksConfig configures change notifications.
type WebhooksConfig struct {
	Enabled    bool         `json:"enabled" yaml:"enabled"`
	MaxRetries int          `json:"max_retries" yaml:"max_retries"`
	RetryDelay string       `json:"retry_delay" yaml:"retry_delay"`
	Hooks      []HookConfig `json:"hooks" yaml:"hooks"`
}

// HookConfig is a single webhook endpoint.
type HookConfig struct {
	URL     string   `json:"url" yaml:"url"`
	Secret  string   `json:"secret,omitempty" yaml:"secret,omitempty"`
	Events  []string `json:"events" yaml:"events"`
	Timeout string   `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Enabled bool     `json:"enabled" yaml:"enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Workers: 1,
			Exclude: []string{},
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Webhooks: WebhooksConfig{
			MaxRetries: 3,
			RetryDelay: "5s",
		},
	}
}

// DefaultPath returns $HOME/.config/fsnap/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "fsnap", "config.yaml")
	}
	return filepath.Join(home, ".config", "fsnap", "config.yaml")
}

// Load loads configuration from path, or from DefaultPath when path is empty.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := fsutil.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks field ranges and formats.
func (c *Config) Validate() error {
	if c.Capture.Workers < 0 {
		return errclass.ErrConfigInvalid.WithMessagef("capture.workers must be >= 0, got %d", c.Capture.Workers)
	}
	if err := pathutil.ValidatePatterns(c.Capture.Exclude); err != nil {
		return errclass.ErrConfigInvalid.WithMessagef("capture.exclude: %v", err)
	}
	if c.History.MaxSnapshots < 0 {
		return errclass.ErrConfigInvalid.WithMessagef("history.max_snapshots must be >= 0, got %d", c.History.MaxSnapshots)
	}
	if _, err := c.DebounceDuration(); err != nil {
		return errclass.ErrConfigInvalid.WithMessagef("watch.debounce: %v", err)
	}
	if c.Logging.Level != "" {
		if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("logging.level: %v", err)
		}
	}
	if c.Webhooks.MaxRetries < 0 {
		return errclass.ErrConfigInvalid.WithMessagef("webhooks.max_retries must be >= 0, got %d", c.Webhooks.MaxRetries)
	}
	if _, err := parseDuration(c.Webhooks.RetryDelay, 0); err != nil {
		return errclass.ErrConfigInvalid.WithMessagef("webhooks.retry_delay: %v", err)
	}
	for i, h := range c.Webhooks.Hooks {
		if h.URL == "" {
			return errclass.ErrConfigInvalid.WithMessagef("webhooks.hooks[%d].url must not be empty", i)
		}
		if _, err := parseDuration(h.Timeout, 0); err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("webhooks.hooks[%d].timeout: %v", i, err)
		}
	}
	return nil
}

// DebounceDuration returns the parsed watch debounce window.
func (c *Config) DebounceDuration() (time.Duration, error) {
	return parseDuration(c.Watch.Debounce, 500*time.Millisecond)
}

// RetryDelayDuration returns the parsed webhook retry delay.
func (w WebhooksConfig) RetryDelayDuration() time.Duration {
	d, _ := parseDuration(w.RetryDelay, 5*time.Second)
	return d
}

// TimeoutDuration returns the parsed per-hook timeout, 0 when unset.
func (h HookConfig) TimeoutDuration() time.Duration {
	d, _ := parseDuration(h.Timeout, 0)
	return d
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
