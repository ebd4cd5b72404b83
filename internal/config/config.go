package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of a training run.
// It never carries hyperparameters; those come from flags only.
type Config struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Storage StorageConfig `yaml:"storage"`
	Runtime RuntimeConfig `yaml:"runtime"`
	Logging LoggingConfig `yaml:"logging"`
}

type MetricsConfig struct {
	// Listen address for /metrics, e.g. ":9090". Empty disables the server.
	Addr string `yaml:"addr"`
}

type StorageConfig struct {
	// SQLite file recording runs and per-epoch accuracy. Empty disables history.
	HistoryDB string `yaml:"historyDB"`
}

type RuntimeConfig struct {
	// Pause after the model is exported so log collectors can scrape stdout.
	ExitDelay time.Duration `yaml:"exitDelay"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Metrics: MetricsConfig{Addr: ""},
		Storage: StorageConfig{HistoryDB: ""},
		Runtime: RuntimeConfig{ExitDelay: 5 * time.Second},
		Logging: LoggingConfig{Level: "info"},
	}
}

// ResolveEnv overrides config fields from environment variables when set.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("NASTRAIN_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("NASTRAIN_HISTORY_DB"); v != "" {
		c.Storage.HistoryDB = v
	}
	if v := os.Getenv("NASTRAIN_EXIT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.Runtime.ExitDelay = d
		}
	}
	if v := os.Getenv("NASTRAIN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Load reads YAML config from path on top of Default. An empty path yields
// the defaults with environment overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
