package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CCLSentinel/internal/cache"
	"CCLSentinel/internal/metrics"
	"CCLSentinel/internal/model"
)

// DefaultCacheTTL matches the freshness an analytical tool needs.
const DefaultCacheTTL = 5 * time.Minute

// MockFetcher serves canned bars per symbol and records every call.
type MockFetcher struct {
	Bars map[string][]model.PriceBar
	Errs map[string]error

	mu    sync.Mutex
	calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDaily(_ context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()

	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	from, to := model.Day(start), model.Day(end)
	var out []model.PriceBar
	for _, b := range m.Bars[symbol] {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Calls returns the symbols requested so far, in order.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Gateway is the market data boundary: it never returns an error to callers.
// Every transport, rate-limit or unknown-symbol failure becomes (nil, false).
type Gateway struct {
	Fetcher Fetcher
	Cache   cache.Store
	TTL     time.Duration
	Metrics *metrics.Metrics

	now    func() time.Time
	logger zerolog.Logger
}

// NewGateway wraps fetcher with an optional cache (nil disables caching).
func NewGateway(fetcher Fetcher, store cache.Store, ttl time.Duration, m *metrics.Metrics) *Gateway {
	if store == nil {
		store = cache.NewNoopStore()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Gateway{
		Fetcher: fetcher,
		Cache:   store,
		TTL:     ttl,
		Metrics: m,
		now:     time.Now,
		logger:  log.With().Str("component", "gateway").Str("source", fetcher.Name()).Logger(),
	}
}

// FetchDaily returns bars for symbol in [start, end] and true, or nil and false
// when no data is available for any reason.
func (g *Gateway) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, bool) {
	if symbol == "" || model.Day(start).After(model.Day(end)) {
		g.logger.Warn().Str("symbol", symbol).Time("start", start).Time("end", end).Msg("invalid fetch request")
		return nil, false
	}

	key := cache.Key(symbol, start, end)
	if bars, ok, err := g.Cache.Get(ctx, key); err != nil {
		g.logger.Warn().Err(err).Str("symbol", symbol).Msg("cache lookup failed")
	} else if ok && len(bars) > 0 {
		g.Metrics.ObserveFetch("cached", time.Time{})
		return bars, true
	}

	started := g.now()
	bars, err := g.safeFetch(ctx, symbol, start, end)
	if err != nil {
		g.Metrics.ObserveFetch("error", started)
		g.logger.Warn().Err(err).Str("symbol", symbol).Msg("fetch failed, treating as no data")
		return nil, false
	}
	if n := len(bars); n > 0 {
		bars = model.UniqueDays(bars)
		if len(bars) < n {
			g.logger.Warn().Str("symbol", symbol).Int("duplicates", n-len(bars)).Msg("collapsed repeated days")
		}
	}
	if len(bars) == 0 {
		g.Metrics.ObserveFetch("empty", started)
		g.logger.Warn().Str("symbol", symbol).Msg("provider returned no bars")
		return nil, false
	}
	g.Metrics.ObserveFetch("ok", started)

	if err := g.Cache.Put(ctx, key, bars, g.now().Add(g.TTL)); err != nil {
		g.logger.Warn().Err(err).Str("symbol", symbol).Msg("cache store failed")
	}
	return bars, true
}

// safeFetch shields callers from a misbehaving Fetcher implementation.
func (g *Gateway) safeFetch(ctx context.Context, symbol string, start, end time.Time) (bars []model.PriceBar, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panic: %v", r)
		}
	}()
	return g.Fetcher.FetchDaily(ctx, symbol, start, end)
}
