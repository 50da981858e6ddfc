package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CCLSentinel/internal/analysis"
	"CCLSentinel/internal/model"
	"CCLSentinel/internal/notifier"
)

// Sender delivers reports.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// BatchAnalyzer runs one analysis batch.
type BatchAnalyzer interface {
	Analyze(ctx context.Context, symbols []string, lookback, windowDays int) ([]model.AnalysisResult, error)
}

// CurrentRateSource resolves the latest implied rate.
type CurrentRateSource interface {
	ResolveCurrentRate(ctx context.Context) (*model.CurrentRate, bool)
}

// Scheduler runs the daily batch and answers chat commands.
type Scheduler struct {
	Cron       *cron.Cron
	Analyzer   BatchAnalyzer
	Rates      CurrentRateSource
	Notifier   Sender
	Symbols    []string
	Lookback   int
	WindowDays int
	Ctx        context.Context
	Clock      func() time.Time

	logger zerolog.Logger
}

// NewScheduler creates a Scheduler. A nil location runs cron in local time.
func NewScheduler(ctx context.Context, an BatchAnalyzer, rates CurrentRateSource, sender Sender, loc *time.Location) *Scheduler {
	opts := []cron.Option{cron.WithSeconds()}
	if loc != nil {
		opts = append(opts, cron.WithLocation(loc))
	}
	return &Scheduler{
		Cron:       cron.New(opts...),
		Analyzer:   an,
		Rates:      rates,
		Notifier:   sender,
		Symbols:    analysis.DefaultSymbols,
		Lookback:   analysis.DefaultLookback,
		WindowDays: analysis.DefaultWindowDays,
		Ctx:        ctx,
		Clock:      time.Now,
		logger:     log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterDaily registers the daily batch report.
func (s *Scheduler) RegisterDaily(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunDailyNow executes the daily task immediately.
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	s.logger.Info().Strs("symbols", s.Symbols).Msg("running daily batch")
	s.trySend(s.report(s.Ctx, s.Symbols))
}

func (s *Scheduler) report(ctx context.Context, symbols []string) string {
	results, err := s.Analyzer.Analyze(ctx, symbols, s.Lookback, s.WindowDays)
	if err != nil {
		s.logger.Error().Err(err).Msg("batch failed")
		if errors.Is(err, analysis.ErrRateResolutionFailed) {
			return "❌ No se pudo obtener el dólar CCL histórico, análisis cancelado."
		}
		return fmt.Sprintf("❌ Error en el análisis: %v", err)
	}
	return notifier.FormatBatchReport(results, len(symbols), s.Lookback, s.WindowDays, s.Clock())
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText()
	}
	// "/analyze@SomeBot" in group chats
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/rate", "/ccl":
		rate, ok := s.Rates.ResolveCurrentRate(ctx)
		if !ok {
			return notifier.FormatRateStatus(nil)
		}
		return notifier.FormatRateStatus(rate)
	case "/analyze", "/rsi":
		symbols := s.Symbols
		if len(fields) > 1 {
			symbols = fields[1:]
		}
		if len(symbols) > analysis.MaxSymbols {
			return fmt.Sprintf("❌ Máximo %d símbolos por consulta.", analysis.MaxSymbols)
		}
		return s.report(ctx, symbols)
	case "/symbols":
		return "Acciones disponibles: " + strings.Join(analysis.PresetSymbols, ", ")
	default:
		return helpText()
	}
}

func helpText() string {
	return "Comandos disponibles:\n" +
		"• /rate - dólar CCL implícito actual\n" +
		"• /analyze [SÍMBOLOS...] - RSI en pesos y en dólares\n" +
		"• /symbols - acciones disponibles"
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
