package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"CCLSentinel/internal/analysis"
	"CCLSentinel/internal/exchange"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.Provider != ProviderYahoo {
		t.Errorf("provider = %s", cfg.DataSource.Provider)
	}
	if cfg.Analysis.RSIPeriod != analysis.DefaultLookback || cfg.Analysis.WindowDays != analysis.DefaultWindowDays {
		t.Errorf("analysis defaults: %+v", cfg.Analysis)
	}
	if !reflect.DeepEqual(cfg.Rate.Candidates, exchange.DefaultCandidates()) {
		t.Errorf("candidates = %v", cfg.Rate.Candidates)
	}
	if !cfg.CacheEnabled() || cfg.TelegramEnabled() {
		t.Error("expected cache on and telegram off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: rest
  base_url: https://bars.example.com
cache:
  enabled: false
rate:
  candidates:
    - {local: YPFD.BA, hard: YPF, multiplier: 1}
analysis:
  symbols: [PAMP]
  rsi_period: 21
`)
	t.Setenv("SYMBOLS", "GGAL, BMA ,")
	t.Setenv("WINDOW_DAYS", "90")
	t.Setenv("SPOT_FALLBACK", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.Provider != ProviderREST || cfg.DataSource.BaseURL != "https://bars.example.com" {
		t.Errorf("data source: %+v", cfg.DataSource)
	}
	if cfg.CacheEnabled() {
		t.Error("cache should be disabled")
	}
	if len(cfg.Rate.Candidates) != 1 || cfg.Rate.Candidates[0].Hard != "YPF" {
		t.Errorf("candidates = %v", cfg.Rate.Candidates)
	}
	if !reflect.DeepEqual(cfg.Analysis.Symbols, []string{"GGAL", "BMA"}) {
		t.Errorf("symbols = %v", cfg.Analysis.Symbols)
	}
	if cfg.Analysis.RSIPeriod != 21 || cfg.Analysis.WindowDays != 90 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if !cfg.Rate.SpotFallback || cfg.Telegram.ChatID != -100123 {
		t.Errorf("overrides not applied: %+v %+v", cfg.Rate, cfg.Telegram)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("RSI_PERIOD", "fourteen")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil || !strings.Contains(err.Error(), "RSI_PERIOD") {
		t.Errorf("expected RSI_PERIOD error, got %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "analysis: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"rest without url", func(c *Config) { c.DataSource.Provider = ProviderREST }, "base_url"},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }, "not supported"},
		{"bad multiplier", func(c *Config) { c.Rate.Candidates[0].Multiplier = 0 }, "multiplier"},
		{"zero period", func(c *Config) { c.Analysis.RSIPeriod = -1 }, "rsi_period"},
		{"bad cron", func(c *Config) { c.Schedule.DailyCron = "daily" }, "daily_cron"},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }, "chat_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}
