package exchange

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CCLSentinel/internal/metrics"
	"CCLSentinel/internal/model"
)

const (
	// DefaultMinAligned is the fewest common trading days a candidate needs.
	DefaultMinAligned = 10
	// DefaultCurrentLookbackDays bounds the search for the latest common close.
	DefaultCurrentLookbackDays = 10
)

// BarSource is the market data boundary the resolver reads from.
type BarSource interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, bool)
}

// DefaultCandidates is the priority list of dual-listed reference pairs.
// GGAL ADRs bundle ten local shares; YPF and VIST trade one-for-one.
func DefaultCandidates() []model.RateCandidate {
	return []model.RateCandidate{
		{Local: "GGAL.BA", Hard: "GGAL", Multiplier: 10},
		{Local: "YPFD.BA", Hard: "YPF", Multiplier: 1},
		{Local: "VIST.BA", Hard: "VIST", Multiplier: 1},
	}
}

// Resolver derives the implied exchange rate from the first candidate pair
// that yields usable data.
type Resolver struct {
	Source              BarSource
	Candidates          []model.RateCandidate
	MinAligned          int
	CurrentLookbackDays int
	Metrics             *metrics.Metrics
	Clock               func() time.Time

	logger zerolog.Logger
}

// NewResolver creates a resolver; an empty candidate list uses DefaultCandidates.
func NewResolver(src BarSource, candidates []model.RateCandidate, m *metrics.Metrics) *Resolver {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	return &Resolver{
		Source:              src,
		Candidates:          candidates,
		MinAligned:          DefaultMinAligned,
		CurrentLookbackDays: DefaultCurrentLookbackDays,
		Metrics:             m,
		Clock:               time.Now,
		logger:              log.With().Str("component", "rate_resolver").Logger(),
	}
}

// ResolveHistoricalRate resolves a daily rate series covering the last windowDays.
func (r *Resolver) ResolveHistoricalRate(ctx context.Context, windowDays int) (*model.RateSeries, bool) {
	end := model.Day(r.Clock())
	return r.ResolveHistoricalRange(ctx, end.AddDate(0, 0, -windowDays), end)
}

// ResolveHistoricalRange tries each candidate in priority order and returns
// the first rate series with at least MinAligned common trading days.
func (r *Resolver) ResolveHistoricalRange(ctx context.Context, start, end time.Time) (*model.RateSeries, bool) {
	for _, c := range r.Candidates {
		if ctx.Err() != nil {
			return nil, false
		}
		pairs, ok := r.fetchPairs(ctx, c, start, end)
		if !ok {
			r.Metrics.ObserveRate("historical", c.String(), "no_data")
			continue
		}
		if len(pairs) < r.MinAligned {
			r.logger.Warn().Stringer("candidate", c).Int("aligned", len(pairs)).Int("required", r.MinAligned).
				Msg("insufficient aligned days, trying next candidate")
			r.Metrics.ObserveRate("historical", c.String(), "insufficient")
			continue
		}

		series := &model.RateSeries{Candidate: c, Points: make([]model.RatePoint, len(pairs))}
		for i, p := range pairs {
			series.Points[i] = model.RatePoint{Date: p.date, Rate: p.rate(c.Multiplier)}
		}
		if err := series.Validate(); err != nil {
			r.logger.Warn().Err(err).Stringer("candidate", c).Msg("rejected rate series")
			r.Metrics.ObserveRate("historical", c.String(), "invalid")
			continue
		}
		r.Metrics.ObserveRate("historical", c.String(), "ok")
		r.logger.Info().Stringer("candidate", c).Int("days", series.Len()).Msg("historical rate resolved")
		return series, true
	}
	r.logger.Error().Int("candidates", len(r.Candidates)).Msg("no candidate produced a historical rate")
	return nil, false
}

// ResolveCurrentRate returns the implied rate on the most recent day both legs
// of a candidate traded.
func (r *Resolver) ResolveCurrentRate(ctx context.Context) (*model.CurrentRate, bool) {
	end := model.Day(r.Clock())
	start := end.AddDate(0, 0, -r.CurrentLookbackDays)
	for _, c := range r.Candidates {
		if ctx.Err() != nil {
			return nil, false
		}
		pairs, ok := r.fetchPairs(ctx, c, start, end)
		if !ok || len(pairs) == 0 {
			r.Metrics.ObserveRate("current", c.String(), "no_data")
			continue
		}
		last := pairs[len(pairs)-1]
		r.Metrics.ObserveRate("current", c.String(), "ok")
		return &model.CurrentRate{
			Candidate:  c,
			Date:       last.date,
			Rate:       last.rate(c.Multiplier),
			LocalClose: last.local,
			HardClose:  last.hard,
		}, true
	}
	r.logger.Error().Msg("no candidate produced a current rate")
	return nil, false
}

type legPair struct {
	date  time.Time
	local float64
	hard  float64
}

func (p legPair) rate(multiplier float64) float64 {
	return p.local / p.hard * multiplier
}

// fetchPairs fetches both legs and inner-joins them by date. The hard leg is
// not requested when the local leg is already empty.
func (r *Resolver) fetchPairs(ctx context.Context, c model.RateCandidate, start, end time.Time) ([]legPair, bool) {
	if !(c.Multiplier > 0) {
		r.logger.Warn().Stringer("candidate", c).Msg("skipping candidate with non-positive multiplier")
		return nil, false
	}
	local, ok := r.Source.FetchDaily(ctx, c.Local, start, end)
	if !ok {
		r.logger.Warn().Str("ticker", c.Local).Msg("local leg empty, trying next candidate")
		return nil, false
	}
	hard, ok := r.Source.FetchDaily(ctx, c.Hard, start, end)
	if !ok {
		r.logger.Warn().Str("ticker", c.Hard).Msg("hard-currency leg empty, trying next candidate")
		return nil, false
	}
	return joinLegs(local, hard), true
}

// joinLegs keeps only dates where both legs have a positive close.
func joinLegs(local, hard []model.PriceBar) []legPair {
	hardByDay := make(map[time.Time]float64, len(hard))
	for _, b := range hard {
		if b.Close > 0 {
			hardByDay[model.Day(b.Date)] = b.Close
		}
	}
	pairs := make([]legPair, 0, len(local))
	var last time.Time
	for _, b := range local {
		day := model.Day(b.Date)
		h, ok := hardByDay[day]
		if !ok || !(b.Close > 0) {
			continue
		}
		if len(pairs) > 0 && !day.After(last) {
			continue // duplicate or out-of-order local bar
		}
		pairs = append(pairs, legPair{date: day, local: b.Close, hard: h})
		last = day
	}
	return pairs
}
