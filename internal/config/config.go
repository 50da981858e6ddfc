package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"CCLSentinel/internal/analysis"
	"CCLSentinel/internal/cache"
	"CCLSentinel/internal/calendar"
	"CCLSentinel/internal/exchange"
	"CCLSentinel/internal/model"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Proxy     string `yaml:"proxy"`

	DataSource struct {
		Provider          string `yaml:"provider"`
		BaseURL           string `yaml:"base_url"`
		APIKey            string `yaml:"api_key"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		RequestsPerSecond int    `yaml:"requests_per_second"`
		MaxRetries        int    `yaml:"max_retries"`
		LocalSuffix       string `yaml:"local_suffix"`
	} `yaml:"data_source"`
	Cache struct {
		Enabled    *bool  `yaml:"enabled"`
		TTLSeconds int    `yaml:"ttl_seconds"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"cache"`
	Rate struct {
		Candidates          []model.RateCandidate `yaml:"candidates"`
		MinAlignedDays      int                   `yaml:"min_aligned_days"`
		SpotFallback        bool                  `yaml:"spot_fallback"`
		CurrentLookbackDays int                   `yaml:"current_lookback_days"`
	} `yaml:"rate"`
	Analysis struct {
		Symbols     []string `yaml:"symbols"`
		RSIPeriod   int      `yaml:"rsi_period"`
		WindowDays  int      `yaml:"window_days"`
		Concurrency int      `yaml:"concurrency"`
		CalendarMIC string   `yaml:"calendar_mic"`
	} `yaml:"analysis"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
		Timezone  string `yaml:"timezone"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads .env into the environment, then the YAML file at path (a missing
// file is allowed), then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"LOG_LEVEL":          &c.LogLevel,
		"HTTPS_PROXY":        &c.Proxy,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"DATA_BASE_URL":      &c.DataSource.BaseURL,
		"DATA_API_KEY":       &c.DataSource.APIKey,
		"CRON_DAILY":         &c.Schedule.DailyCron,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"SERVER_ADDR":        &c.Server.Addr,
		"CACHE_SQLITE_PATH":  &c.Cache.SQLitePath,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"RSI_PERIOD":  &c.Analysis.RSIPeriod,
		"WINDOW_DAYS": &c.Analysis.WindowDays,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("SPOT_FALLBACK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SPOT_FALLBACK: %w", err)
		}
		c.Rate.SpotFallback = b
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Analysis.Symbols = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Analysis.Symbols = append(c.Analysis.Symbols, s)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}

	ds := &c.DataSource
	if ds.Provider == "" {
		ds.Provider = ProviderYahoo
	}
	if ds.TimeoutSeconds == 0 {
		ds.TimeoutSeconds = 15
	}
	if ds.RequestsPerSecond == 0 {
		ds.RequestsPerSecond = 2
	}
	if ds.MaxRetries == 0 {
		ds.MaxRetries = 3
	}
	if ds.LocalSuffix == "" {
		ds.LocalSuffix = analysis.DefaultLocalSuffix
	}

	if c.Cache.Enabled == nil {
		enabled := true
		c.Cache.Enabled = &enabled
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = cache.MemoryDSN
	}

	if len(c.Rate.Candidates) == 0 {
		c.Rate.Candidates = exchange.DefaultCandidates()
	}
	if c.Rate.MinAlignedDays == 0 {
		c.Rate.MinAlignedDays = exchange.DefaultMinAligned
	}
	if c.Rate.CurrentLookbackDays == 0 {
		c.Rate.CurrentLookbackDays = exchange.DefaultCurrentLookbackDays
	}

	if len(c.Analysis.Symbols) == 0 {
		c.Analysis.Symbols = append([]string(nil), analysis.DefaultSymbols...)
	}
	if c.Analysis.RSIPeriod == 0 {
		c.Analysis.RSIPeriod = analysis.DefaultLookback
	}
	if c.Analysis.WindowDays == 0 {
		c.Analysis.WindowDays = analysis.DefaultWindowDays
	}
	if c.Analysis.Concurrency == 0 {
		c.Analysis.Concurrency = analysis.DefaultConcurrency
	}
	if c.Analysis.CalendarMIC == "" {
		c.Analysis.CalendarMIC = calendar.DefaultMIC
	}

	// after the BYMA close, Monday to Friday
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 17 * * 1-5"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/Argentina/Buenos_Aires"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// CacheEnabled reports whether fetched bars are cached for the session.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// TelegramEnabled reports whether a bot token is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider %q", ProviderREST)
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.RequestsPerSecond < 0 {
		return fmt.Errorf("data_source.requests_per_second must not be negative")
	}
	if c.DataSource.MaxRetries < 0 {
		return fmt.Errorf("data_source.max_retries must not be negative")
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must not be negative")
	}

	for i, cand := range c.Rate.Candidates {
		if cand.Local == "" || cand.Hard == "" {
			return fmt.Errorf("rate.candidates[%d]: local and hard tickers are required", i)
		}
		if !(cand.Multiplier > 0) {
			return fmt.Errorf("rate.candidates[%d]: multiplier must be positive", i)
		}
	}
	if c.Rate.MinAlignedDays < 1 {
		return fmt.Errorf("rate.min_aligned_days must be at least 1")
	}

	if c.Analysis.RSIPeriod < 1 {
		return fmt.Errorf("analysis.rsi_period must be positive")
	}
	if c.Analysis.WindowDays < 1 {
		return fmt.Errorf("analysis.window_days must be positive")
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be positive")
	}

	if _, err := cronParser.Parse(c.Schedule.DailyCron); err != nil {
		return fmt.Errorf("schedule.daily_cron: %w", err)
	}
	if c.TelegramEnabled() && c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}
