package app

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"CCLSentinel/internal/analysis"
	"CCLSentinel/internal/cache"
	"CCLSentinel/internal/calendar"
	"CCLSentinel/internal/collector"
	"CCLSentinel/internal/config"
	"CCLSentinel/internal/exchange"
	"CCLSentinel/internal/metrics"
	"CCLSentinel/internal/platform/httpclient"
)

// App holds the wired core shared by the service and the CLI.
type App struct {
	Config   *config.Config
	Metrics  *metrics.Metrics
	Store    cache.Store
	Gateway  *collector.Gateway
	Resolver *exchange.Resolver
	Analyzer *analysis.Analyzer
}

// New wires the core from cfg. fetcher overrides the configured provider when non-nil.
func New(cfg *config.Config, fetcher collector.Fetcher) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if fetcher == nil {
		fetcher = NewFetcher(cfg)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source selected")

	var store cache.Store = cache.NewNoopStore()
	if cfg.CacheEnabled() {
		s, err := cache.NewSQLiteStore(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open bar cache: %w", err)
		}
		store = s
	}

	gw := collector.NewGateway(fetcher, store, time.Duration(cfg.Cache.TTLSeconds)*time.Second, m)

	res := exchange.NewResolver(gw, cfg.Rate.Candidates, m)
	res.MinAligned = cfg.Rate.MinAlignedDays
	res.CurrentLookbackDays = cfg.Rate.CurrentLookbackDays

	an := analysis.NewAnalyzer(gw, res, calendar.Get(cfg.Analysis.CalendarMIC), m)
	an.Concurrency = cfg.Analysis.Concurrency
	an.LocalSuffix = cfg.DataSource.LocalSuffix
	an.SpotFallback = cfg.Rate.SpotFallback

	return &App{
		Config:   cfg,
		Metrics:  m,
		Store:    store,
		Gateway:  gw,
		Resolver: res,
		Analyzer: an,
	}, nil
}

// NewFetcher builds the configured market data provider.
func NewFetcher(cfg *config.Config) collector.Fetcher {
	client := httpclient.New(httpclient.Options{
		Timeout:        time.Duration(cfg.DataSource.TimeoutSeconds) * time.Second,
		RequestsPerSec: cfg.DataSource.RequestsPerSecond,
		MaxRetries:     cfg.DataSource.MaxRetries,
		Proxy:          cfg.Proxy,
	})
	if cfg.DataSource.Provider == config.ProviderREST {
		return collector.NewRestFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, client)
	}
	return collector.NewYahooFetcher(client)
}

func (a *App) Close() error {
	return a.Store.Close()
}
