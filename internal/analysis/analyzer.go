package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"CCLSentinel/internal/aligner"
	"CCLSentinel/internal/calculator"
	"CCLSentinel/internal/calendar"
	"CCLSentinel/internal/metrics"
	"CCLSentinel/internal/model"
	"CCLSentinel/internal/strategy"
)

// ErrRateResolutionFailed means no conversion basis could be established.
var ErrRateResolutionFailed = errors.New("exchange rate resolution failed")

const (
	DefaultLookback    = 14
	DefaultWindowDays  = 90
	DefaultConcurrency = 4
	DefaultLocalSuffix = ".BA"
)

// PresetSymbols are the BYMA tickers offered for selection.
var PresetSymbols = []string{"GGAL", "YPFD", "BBAR", "BMA", "CEPU", "EDN", "LOMA", "PAMP", "TXAR"}

// MaxSymbols caps the symbols accepted in one request.
const MaxSymbols = 20

// DefaultSymbols is the selection used when none is given.
var DefaultSymbols = []string{"GGAL", "YPFD", "BBAR"}

// BarSource is the market data boundary.
type BarSource interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, bool)
}

// RateSource resolves the conversion basis.
type RateSource interface {
	ResolveHistoricalRange(ctx context.Context, start, end time.Time) (*model.RateSeries, bool)
	ResolveCurrentRate(ctx context.Context) (*model.CurrentRate, bool)
}

// Analyzer runs the per-symbol dual-currency RSI batch.
type Analyzer struct {
	Source       BarSource
	Rates        RateSource
	Calendar     *calendar.TradingCalendar
	Metrics      *metrics.Metrics
	Clock        func() time.Time
	Concurrency  int
	LocalSuffix  string
	SpotFallback bool

	logger zerolog.Logger
}

func NewAnalyzer(src BarSource, rates RateSource, cal *calendar.TradingCalendar, m *metrics.Metrics) *Analyzer {
	if cal == nil {
		cal = calendar.Get(calendar.DefaultMIC)
	}
	return &Analyzer{
		Source:      src,
		Rates:       rates,
		Calendar:    cal,
		Metrics:     m,
		Clock:       time.Now,
		Concurrency: DefaultConcurrency,
		LocalSuffix: DefaultLocalSuffix,
		logger:      log.With().Str("component", "analyzer").Logger(),
	}
}

// Window is the date range of one batch: output covers [Start, End], bars are
// fetched from FetchStart so the first output day already has a defined RSI.
type Window struct {
	FetchStart time.Time
	Start      time.Time
	End        time.Time
}

// WindowFor computes the batch window ending today.
func (a *Analyzer) WindowFor(lookback, windowDays int) Window {
	end := model.Day(a.Clock())
	start := end.AddDate(0, 0, -windowDays)
	return Window{
		FetchStart: a.Calendar.LeadInStart(start, lookback+1),
		Start:      start,
		End:        end,
	}
}

// ResolveBasis resolves the conversion basis once for a whole batch. The
// historical series is preferred; the current spot rate is used only when
// SpotFallback is enabled.
func (a *Analyzer) ResolveBasis(ctx context.Context, start, end time.Time) (model.RateBasis, error) {
	return a.resolveBasis(ctx, start, end, a.SpotFallback)
}

func (a *Analyzer) resolveBasis(ctx context.Context, start, end time.Time, spotFallback bool) (model.RateBasis, error) {
	if series, ok := a.Rates.ResolveHistoricalRange(ctx, start, end); ok {
		return model.RateBasis{Kind: model.BasisHistorical, Historical: series}, nil
	}
	if !spotFallback {
		return model.RateBasis{}, ErrRateResolutionFailed
	}
	spot, ok := a.Rates.ResolveCurrentRate(ctx)
	if !ok {
		return model.RateBasis{}, ErrRateResolutionFailed
	}
	a.logger.Warn().Float64("rate", spot.Rate).Stringer("candidate", spot.Candidate).
		Msg("historical rate unavailable, applying spot rate to the whole window")
	return model.RateBasis{Kind: model.BasisSpot, Spot: spot}, nil
}

// Analyze resolves the basis and analyzes every symbol. A symbol without
// usable data is omitted; only a failed rate resolution aborts the batch.
func (a *Analyzer) Analyze(ctx context.Context, symbols []string, lookback, windowDays int) ([]model.AnalysisResult, error) {
	return a.AnalyzeWith(ctx, symbols, lookback, windowDays, a.SpotFallback)
}

// AnalyzeWith is Analyze with the spot fallback chosen by the caller.
func (a *Analyzer) AnalyzeWith(ctx context.Context, symbols []string, lookback, windowDays int, spotFallback bool) ([]model.AnalysisResult, error) {
	if lookback <= 0 {
		return nil, calculator.ErrInvalidPeriod
	}
	if windowDays <= 0 {
		return nil, fmt.Errorf("window days must be positive, got %d", windowDays)
	}
	w := a.WindowFor(lookback, windowDays)
	basis, err := a.resolveBasis(ctx, w.FetchStart, w.End, spotFallback)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeWithBasis(ctx, symbols, lookback, w, basis)
}

// AnalyzeWithBasis analyzes symbols against an already resolved basis.
// Results keep the request order.
func (a *Analyzer) AnalyzeWithBasis(ctx context.Context, symbols []string, lookback int, w Window, basis model.RateBasis) ([]model.AnalysisResult, error) {
	started := time.Now()
	defer a.Metrics.ObserveBatch(started)

	slots := make([]*model.AnalysisResult, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	limit := a.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i, sym := range symbols {
		g.Go(func() error {
			res, err := a.analyzeSymbol(gctx, sym, lookback, w, basis)
			if err != nil {
				a.logger.Warn().Err(err).Str("symbol", sym).Msg("symbol skipped")
				a.Metrics.ObserveSymbol("skipped")
				return nil
			}
			a.Metrics.ObserveSymbol("ok")
			slots[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]model.AnalysisResult, 0, len(symbols))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	a.logger.Info().Int("requested", len(symbols)).Int("returned", len(results)).
		Str("basis", string(basis.Kind)).Msg("batch analyzed")
	return results, nil
}

func (a *Analyzer) analyzeSymbol(ctx context.Context, symbol string, lookback int, w Window, basis model.RateBasis) (*model.AnalysisResult, error) {
	name, ticker := a.Ticker(symbol)
	if ticker == "" {
		return nil, errors.New("empty symbol")
	}
	bars, ok := a.Source.FetchDaily(ctx, ticker, w.FetchStart, w.End)
	if !ok {
		return nil, errors.New("no market data")
	}

	var (
		aligned model.AlignedSeries
		dropped int
	)
	switch basis.Kind {
	case model.BasisHistorical:
		aligned, dropped = aligner.Align(bars, basis.Historical)
	case model.BasisSpot:
		aligned, dropped = aligner.AlignFixed(bars, basis.Spot.Rate)
	default:
		return nil, fmt.Errorf("unknown rate basis %q", basis.Kind)
	}
	a.Metrics.ObserveDropped(dropped)
	if len(aligned) == 0 {
		return nil, errors.New("no aligned days")
	}

	dates := aligned.Dates()
	localOsc, err := calculator.Oscillator(dates, aligned.LocalCloses(), lookback)
	if err != nil {
		return nil, fmt.Errorf("local rsi: %w", err)
	}
	hardOsc, err := calculator.Oscillator(dates, aligned.HardCloses(), lookback)
	if err != nil {
		return nil, fmt.Errorf("hard rsi: %w", err)
	}

	series := aligned.Since(w.Start)
	if len(series) == 0 {
		return nil, errors.New("no data inside the window")
	}
	localOsc = localOsc.Since(w.Start)
	hardOsc = hardOsc.Since(w.Start)

	last := series[len(series)-1]
	res := &model.AnalysisResult{
		Symbol:          name,
		Ticker:          ticker,
		Basis:           basis.Kind,
		AsOf:            last.Date,
		LocalClose:      last.LocalClose,
		HardClose:       last.HardClose,
		Rate:            last.Rate,
		LocalRSI:        localOsc.Latest(),
		HardRSI:         hardOsc.Latest(),
		Series:          series,
		LocalOscillator: localOsc,
		HardOscillator:  hardOsc,
	}
	if res.LocalRSI.Valid && res.HardRSI.Valid {
		res.Difference = null.FloatFrom(res.HardRSI.Float64 - res.LocalRSI.Float64)
	}
	res.Signal = strategy.Classify(res.HardRSI)

	hardCloses := series.HardCloses()
	if v, err := calculator.CalculateVariation(series.LocalCloses()); err == nil {
		res.LocalVariationPct = v
	}
	if v, err := calculator.CalculateVariation(hardCloses); err == nil {
		res.HardVariationPct = v
	}
	if hi, lo, err := calculator.CalculateRange(hardCloses); err == nil {
		res.HardHigh, res.HardLow = hi, lo
		if pos, err := calculator.CalculatePosition(last.HardClose, hi, lo); err == nil {
			res.HardPosition = pos
		}
	}
	return res, nil
}

// Ticker returns the display name and the local market ticker for symbol.
// Bare symbols get LocalSuffix; symbols that already carry a suffix are kept.
func (a *Analyzer) Ticker(symbol string) (name, ticker string) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", ""
	}
	if i := strings.IndexByte(s, '.'); i > 0 {
		return s[:i], s
	}
	return s, s + a.LocalSuffix
}
