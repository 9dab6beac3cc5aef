package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cleanreader.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q", cfg.Server.Host)
	}
	if cfg.Database.Path != "cleanreader.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Pricing.BasePrice != 0.0015 {
		t.Errorf("base price = %v", cfg.Pricing.BasePrice)
	}
	if cfg.Pricing.LargePageKB != 500 {
		t.Errorf("large page kb = %v", cfg.Pricing.LargePageKB)
	}
	if cfg.Alerts.WarningPercent != 80 || cfg.Alerts.CriticalPercent != 100 {
		t.Errorf("alerts = %+v", cfg.Alerts)
	}
	if cfg.Usage.BatchSize != 100 || cfg.Usage.FlushInterval != 10*time.Second {
		t.Errorf("usage = %+v", cfg.Usage)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Disabled {
		t.Error("metrics disabled by default")
	}
	if len(cfg.Tiers) != 0 {
		t.Errorf("tiers = %d, want built-in catalog (empty)", len(cfg.Tiers))
	}
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 8181
database:
  path: /tmp/reader.db
pricing:
  base_price: 0.002
  image_price: 0.004
alerts:
  warning_percent: 70
  critical_percent: 95
tiers:
  - name: free
    monthly_limit: 100
    rate_per_minute: 5
    rate_per_day: 100
    discount: 1.0
  - name: pro
    monthly_limit: 50000
    rate_per_minute: 60
    rate_per_day: 20000
    discount: 0.9
    price_monthly: 79
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8181 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Pricing.BasePrice != 0.002 || cfg.Pricing.ImagePrice != 0.004 {
		t.Errorf("pricing = %+v", cfg.Pricing)
	}
	// Unset pricing fields still get defaults
	if cfg.Pricing.PDFPrice != 0.003 {
		t.Errorf("pdf price = %v", cfg.Pricing.PDFPrice)
	}
	if len(cfg.Tiers) != 2 || cfg.Tiers[1].Discount != 0.9 {
		t.Errorf("tiers = %+v", cfg.Tiers)
	}
	if cfg.Alerts.WarningPercent != 70 {
		t.Errorf("warning = %v", cfg.Alerts.WarningPercent)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLEANREADER_SERVER_PORT", "7070")
	t.Setenv("CLEANREADER_LOG_LEVEL", "warn")
	t.Setenv("CLEANREADER_METRICS_DISABLED", "true")

	path := writeConfig(t, "server:\n  port: 9090\nlogging:\n  level: debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, env should override file", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, env should override file", cfg.Logging.Level)
	}
	if !cfg.Metrics.Disabled {
		t.Error("metrics not disabled by env")
	}
}

func TestLoad_ExpandsEnvInFile(t *testing.T) {
	t.Setenv("READER_DB_DIR", "/var/lib/cleanreader")
	path := writeConfig(t, "database:\n  path: ${READER_DB_DIR}/reader.db\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/var/lib/cleanreader/reader.db" {
		t.Errorf("path = %q", cfg.Database.Path)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  port: 99999\n"},
		{"bad log level", "logging:\n  level: verbose\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"tier missing name", "tiers:\n  - rate_per_minute: 5\n    discount: 1.0\n"},
		{"tier bad discount", "tiers:\n  - name: free\n    rate_per_minute: 5\n    discount: 1.5\n"},
		{"tier zero rate", "tiers:\n  - name: free\n    discount: 1.0\n"},
		{"duplicate tier", "tiers:\n  - name: free\n    rate_per_minute: 5\n    discount: 1.0\n  - name: free\n    rate_per_minute: 5\n    discount: 1.0\n"},
		{"alerts inverted", "alerts:\n  warning_percent: 95\n  critical_percent: 90\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			if _, err := Load(path); err == nil {
				t.Error("Load accepted invalid config")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/cleanreader.yaml"); err == nil {
		t.Error("Load accepted missing file")
	}
}

func TestLoadWithFallback(t *testing.T) {
	// Existing file wins
	path := writeConfig(t, "server:\n  port: 9090\n")
	cfg, err := LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want file value", cfg.Server.Port)
	}

	// Missing file falls back to env and defaults
	t.Setenv("CLEANREADER_SERVER_PORT", "6060")
	cfg, err = LoadWithFallback("/nonexistent/cleanreader.yaml")
	if err != nil {
		t.Fatalf("LoadWithFallback fallback: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("port = %d, want env value", cfg.Server.Port)
	}
}

func TestHolder_ReloadKeepsOldConfigOnError(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("logging:\n  level: bogus\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Error("Reload accepted invalid config")
	}
	if h.Get().Server.Port != 9090 {
		t.Errorf("port = %d, old config not kept", h.Get().Server.Port)
	}
}

func TestHolder_ReloadNotifiesListeners(t *testing.T) {
	path := writeConfig(t, "pricing:\n  base_price: 0.0015\n")

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	defer h.Stop()

	var got *Config
	h.OnChange(func(c *Config) { got = c })

	if err := os.WriteFile(path, []byte("pricing:\n  base_price: 0.005\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if got == nil {
		t.Fatal("OnChange listener not called")
	}
	if got.Pricing.BasePrice != 0.005 {
		t.Errorf("base price = %v, want reloaded value", got.Pricing.BasePrice)
	}
	if h.Get().Pricing.BasePrice != 0.005 {
		t.Errorf("holder value = %v", h.Get().Pricing.BasePrice)
	}
}
