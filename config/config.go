package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/metrics"
	"github.com/rustyeddy/tradejournal/share"
)

// Config represents the complete journal configuration
type Config struct {
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Share   ShareConfig   `json:"share" yaml:"share"`
	Log     LogConfig     `json:"log" yaml:"log"`
	API     APIConfig     `json:"api" yaml:"api"`
}

// JournalConfig points at the trade store
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// MetricsConfig tunes classification, drawdown and the edge score
type MetricsConfig struct {
	ScratchEpsilon  float64            `json:"scratch_epsilon" yaml:"scratch_epsilon"`
	StartingBalance float64            `json:"starting_balance" yaml:"starting_balance"`
	Timezone        string             `json:"timezone" yaml:"timezone"`
	Edge            metrics.EdgeConfig `json:"edge" yaml:"edge"`
}

// ShareConfig selects where public snapshots go
type ShareConfig struct {
	Backend         string `json:"backend" yaml:"backend"` // "file" or "firebase"
	ProjectID       string `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	CredentialsPath string `json:"credentials_path,omitempty" yaml:"credentials_path,omitempty"`
	OutDir          string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	RetryAttempts   int    `json:"retry_attempts" yaml:"retry_attempts"`
	RetryIntervalMS int    `json:"retry_interval_ms" yaml:"retry_interval_ms"`
	InlineLimit     int    `json:"inline_limit" yaml:"inline_limit"`
}

type LogConfig struct {
	Level   string `json:"level" yaml:"level"`
	Format  string `json:"format" yaml:"format"`
	Tracing bool   `json:"tracing" yaml:"tracing"`
}

type APIConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Load reads path (defaults when empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = readFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML or JSON). Fields the
// file leaves out keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadEnv loads .env style files into the process environment. Missing
// files are skipped; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	str := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str(&c.Journal.DBPath, "TJ_DB_PATH")
	str(&c.API.Addr, "TJ_API_ADDR")
	str(&c.Share.CredentialsPath, "FIREBASE_CREDENTIALS_PATH")
	str(&c.Share.ProjectID, "FIREBASE_PROJECT_ID")
	str(&c.Share.Bucket, "FIREBASE_STORAGE_BUCKET")
	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.Format, "LOG_FORMAT")
	if v := os.Getenv("LOG_TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Tracing = b
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if !(c.Metrics.ScratchEpsilon >= 0) {
		return fmt.Errorf("metrics.scratch_epsilon must be a non-negative number")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("metrics.timezone: %w", err)
	}
	if err := c.Metrics.Edge.Validate(); err != nil {
		return fmt.Errorf("metrics.%w", err)
	}
	switch c.Share.Backend {
	case "file":
		if c.Share.OutDir == "" {
			return fmt.Errorf("share.out_dir required for file backend")
		}
	case "firebase":
		if c.Share.ProjectID == "" {
			return fmt.Errorf("share.project_id required for firebase backend")
		}
	default:
		return fmt.Errorf("share.backend must be 'file' or 'firebase'")
	}
	if c.Share.RetryAttempts < 1 {
		return fmt.Errorf("share.retry_attempts must be at least 1")
	}
	if c.Share.RetryIntervalMS < 1 {
		return fmt.Errorf("share.retry_interval_ms must be positive")
	}
	if c.Share.InlineLimit < 1 {
		return fmt.Errorf("share.inline_limit must be positive")
	}
	if c.API.Addr == "" {
		return fmt.Errorf("api.addr is required")
	}
	return nil
}

// Location resolves metrics.timezone; empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Metrics.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Metrics.Timezone)
}

// MetricsOptions returns the aggregator options the config describes.
func (c *Config) MetricsOptions() []metrics.Option {
	opts := []metrics.Option{
		metrics.WithEpsilon(c.Metrics.ScratchEpsilon),
		metrics.WithStartingBalance(c.Metrics.StartingBalance),
	}
	if loc, err := c.Location(); err == nil {
		opts = append(opts, metrics.WithLocation(loc))
	}
	return opts
}

// ShareOptions returns the builder options the config describes.
func (c *Config) ShareOptions() []share.Option {
	opts := []share.Option{
		share.WithRetryAttempts(c.Share.RetryAttempts),
		share.WithRetryInterval(time.Duration(c.Share.RetryIntervalMS) * time.Millisecond),
		share.WithInlineLimit(c.Share.InlineLimit),
		share.WithEpsilon(c.Metrics.ScratchEpsilon),
	}
	if loc, err := c.Location(); err == nil {
		opts = append(opts, share.WithLocation(loc))
	}
	return opts
}

func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{Level: c.Log.Level, Format: c.Log.Format, Tracing: c.Log.Tracing}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Journal: JournalConfig{
			DBPath: "./journal.db",
		},
		Metrics: MetricsConfig{
			ScratchEpsilon: metrics.DefaultScratchEpsilon,
			Edge:           metrics.DefaultEdgeConfig(),
		},
		Share: ShareConfig{
			Backend:         "file",
			OutDir:          "./shares",
			RetryAttempts:   share.DefaultRetryAttempts,
			RetryIntervalMS: int(share.DefaultRetryInterval / time.Millisecond),
			InlineLimit:     share.DefaultInlineLimit,
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
		API: APIConfig{
			Addr: ":8080",
		},
	}
}
