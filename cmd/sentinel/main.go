package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"CCLSentinel/internal/app"
	"CCLSentinel/internal/config"
	"CCLSentinel/internal/logging"
	"CCLSentinel/internal/notifier"
	"CCLSentinel/internal/scheduler"
	"CCLSentinel/internal/server"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Msg("CCLSentinel starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := app.New(cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("init core")
	}
	defer core.Close()

	srv := server.New(core.Resolver, core.Analyzer, core.Metrics.Handler(), server.Defaults{
		Symbols:      cfg.Analysis.Symbols,
		Lookback:     cfg.Analysis.RSIPeriod,
		WindowDays:   cfg.Analysis.WindowDays,
		SpotFallback: cfg.Rate.SpotFallback,
	})
	httpServer := srv.HTTPServer(cfg.Server.Addr)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP API listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server")
		}
	}()

	if cfg.TelegramEnabled() {
		tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			log.Fatal().Err(err).Msg("init telegram")
		}

		loc, err := time.LoadLocation(cfg.Schedule.Timezone)
		if err != nil {
			log.Warn().Err(err).Str("timezone", cfg.Schedule.Timezone).Msg("unknown timezone, using local time")
			loc = nil
		}
		sched := scheduler.NewScheduler(ctx, core.Analyzer, core.Resolver, tn, loc)
		sched.Symbols = cfg.Analysis.Symbols
		sched.Lookback = cfg.Analysis.RSIPeriod
		sched.WindowDays = cfg.Analysis.WindowDays
		if err := sched.RegisterDaily(cfg.Schedule.DailyCron); err != nil {
			log.Fatal().Err(err).Msg("register cron tasks")
		}
		sched.Start()
		defer sched.Stop()

		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("Telegram polling started")

		if os.Getenv("RUN_ON_START") == "true" {
			log.Info().Msg("RUN_ON_START enabled, executing daily batch now")
			go sched.RunDailyNow()
		}
	} else {
		log.Info().Msg("telegram.bot_token not set, scheduler and bot disabled")
	}

	log.Info().Msg("CCLSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown")
	}
	log.Info().Msg("CCLSentinel stopped")
}
