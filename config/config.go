// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Tiers     []TierConfig    `yaml:"tiers"`
	Usage     UsageConfig     `yaml:"usage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ExtractorConfig configures the upstream fetcher.
type ExtractorConfig struct {
	UserAgent    string `yaml:"user_agent"`
	MaxBodyKB    int    `yaml:"max_body_kb"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// PricingConfig configures per-request pricing in USD.
type PricingConfig struct {
	BasePrice      float64 `yaml:"base_price"`
	LargePagePrice float64 `yaml:"large_page_price"`
	ImagePrice     float64 `yaml:"image_price"`
	PDFPrice       float64 `yaml:"pdf_price"`
	LargePageKB    float64 `yaml:"large_page_kb"`
}

// AlertsConfig configures quota alert thresholds (usage percent).
type AlertsConfig struct {
	WarningPercent  float64 `yaml:"warning_percent"`
	CriticalPercent float64 `yaml:"critical_percent"`
}

// TierConfig configures one subscription tier. An empty tiers list
// means the built-in catalog is used.
type TierConfig struct {
	Name          string   `yaml:"name"`
	MonthlyLimit  int64    `yaml:"monthly_limit"` // 0 means unlimited
	RatePerMinute int      `yaml:"rate_per_minute"`
	RatePerDay    int      `yaml:"rate_per_day"` // 0 means unlimited
	Discount      float64  `yaml:"discount"`
	PriceMonthly  float64  `yaml:"price_monthly"`
	Features      []string `yaml:"features,omitempty"`
}

// UsageConfig configures the async usage recorder.
type UsageConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics. The zero value means
// enabled, so the /metrics endpoint is on by default.
type MetricsConfig struct {
	Disabled bool `yaml:"disabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment variables always override file values
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment
// variables and defaults. Useful for container deployments.
//
// Environment variables:
//
//	CLEANREADER_SERVER_HOST          - Server host (default: 0.0.0.0)
//	CLEANREADER_SERVER_PORT          - Server port (default: 8080)
//	CLEANREADER_DATABASE_PATH        - SQLite path (default: cleanreader.db)
//	CLEANREADER_EXTRACTOR_USER_AGENT - Fetcher User-Agent override
//	CLEANREADER_USAGE_BATCH_SIZE     - Usage recorder batch size (default: 100)
//	CLEANREADER_USAGE_FLUSH_INTERVAL - Usage recorder flush interval (default: 10s)
//	CLEANREADER_LOG_LEVEL            - debug, info, warn, error (default: info)
//	CLEANREADER_LOG_FORMAT           - json or console (default: json)
//	CLEANREADER_METRICS_DISABLED     - Disable /metrics (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries the file first, then environment variables.
// Every field has a default, so this never requires a config file.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies CLEANREADER_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLEANREADER_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CLEANREADER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CLEANREADER_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("CLEANREADER_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("CLEANREADER_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("CLEANREADER_EXTRACTOR_USER_AGENT"); v != "" {
		cfg.Extractor.UserAgent = v
	}
	if v := os.Getenv("CLEANREADER_EXTRACTOR_MAX_BODY_KB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Extractor.MaxBodyKB = n
		}
	}

	if v := os.Getenv("CLEANREADER_USAGE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Usage.BatchSize = n
		}
	}
	if v := os.Getenv("CLEANREADER_USAGE_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Usage.FlushInterval = d
		}
	}

	if v := os.Getenv("CLEANREADER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CLEANREADER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("CLEANREADER_METRICS_DISABLED"); v != "" {
		cfg.Metrics.Disabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "cleanreader.db"
	}

	if cfg.Extractor.MaxBodyKB == 0 {
		cfg.Extractor.MaxBodyKB = 10 * 1024
	}
	if cfg.Extractor.MaxIdleConns == 0 {
		cfg.Extractor.MaxIdleConns = 100
	}

	if cfg.Pricing.BasePrice == 0 {
		cfg.Pricing.BasePrice = 0.0015
	}
	if cfg.Pricing.LargePagePrice == 0 {
		cfg.Pricing.LargePagePrice = 0.001
	}
	if cfg.Pricing.ImagePrice == 0 {
		cfg.Pricing.ImagePrice = 0.002
	}
	if cfg.Pricing.PDFPrice == 0 {
		cfg.Pricing.PDFPrice = 0.003
	}
	if cfg.Pricing.LargePageKB == 0 {
		cfg.Pricing.LargePageKB = 500
	}

	if cfg.Alerts.WarningPercent == 0 {
		cfg.Alerts.WarningPercent = 80
	}
	if cfg.Alerts.CriticalPercent == 0 {
		cfg.Alerts.CriticalPercent = 100
	}

	if cfg.Usage.BatchSize == 0 {
		cfg.Usage.BatchSize = 100
	}
	if cfg.Usage.FlushInterval == 0 {
		cfg.Usage.FlushInterval = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Pricing.BasePrice < 0 || cfg.Pricing.LargePagePrice < 0 ||
		cfg.Pricing.ImagePrice < 0 || cfg.Pricing.PDFPrice < 0 {
		return fmt.Errorf("pricing values must not be negative")
	}
	if cfg.Pricing.LargePageKB <= 0 {
		return fmt.Errorf("pricing.large_page_kb must be positive")
	}

	if cfg.Alerts.WarningPercent >= cfg.Alerts.CriticalPercent {
		return fmt.Errorf("alerts.warning_percent (%v) must be below alerts.critical_percent (%v)",
			cfg.Alerts.WarningPercent, cfg.Alerts.CriticalPercent)
	}

	seen := make(map[string]bool)
	for i, t := range cfg.Tiers {
		if t.Name == "" {
			return fmt.Errorf("tiers[%d].name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("tiers[%d]: duplicate tier %q", i, t.Name)
		}
		seen[t.Name] = true
		if t.RatePerMinute <= 0 {
			return fmt.Errorf("tiers[%d].rate_per_minute must be positive", i)
		}
		if t.Discount <= 0 || t.Discount > 1 {
			return fmt.Errorf("tiers[%d].discount must be in (0, 1]", i)
		}
	}

	return nil
}
