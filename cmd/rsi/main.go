// cmd/rsi runs one dual-currency RSI batch and prints the results.
//
// Usage:
//
//	go run ./cmd/rsi --symbols=GGAL,YPFD,BBAR --lookback=14 --days=90 --csv=out/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	"CCLSentinel/internal/analysis"
	"CCLSentinel/internal/app"
	"CCLSentinel/internal/config"
	"CCLSentinel/internal/export"
	"CCLSentinel/internal/logging"
	"CCLSentinel/internal/model"
	"CCLSentinel/internal/strategy"
)

func main() {
	cfgPath := flag.String("config", config.Path(), "Path to the YAML config")
	symbolsStr := flag.String("symbols", "", "Comma-separated BYMA tickers (default: analysis.symbols)")
	lookback := flag.Int("lookback", 0, "RSI period in trading days (default: analysis.rsi_period)")
	days := flag.Int("days", 0, "Analysis window in calendar days (default: analysis.window_days)")
	spot := flag.Bool("spot", false, "Fall back to the current rate when no historical rate resolves")
	csvDir := flag.String("csv", "", "Directory to write the CSV export into (empty: no export)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	symbols := cfg.Analysis.Symbols
	if *symbolsStr != "" {
		symbols = strings.Split(*symbolsStr, ",")
	}
	if *lookback == 0 {
		*lookback = cfg.Analysis.RSIPeriod
	}
	if *days == 0 {
		*days = cfg.Analysis.WindowDays
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := app.New(cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("init core")
	}
	defer core.Close()

	if rate, ok := core.Resolver.ResolveCurrentRate(ctx); ok {
		fmt.Printf("Dólar CCL: $%.2f (%s, %s: $%.2f, %s: US$%.2f, %s)\n\n",
			rate.Rate, rate.Candidate, rate.Candidate.Local, rate.LocalClose,
			rate.Candidate.Hard, rate.HardClose, rate.Date.Format("2006-01-02"))
	} else {
		fmt.Println("Dólar CCL: no disponible")
	}

	results, err := core.Analyzer.AnalyzeWith(ctx, symbols, *lookback, *days, *spot || cfg.Rate.SpotFallback)
	if errors.Is(err, analysis.ErrRateResolutionFailed) {
		log.Fatal().Err(err).Msg("no historical rate; retry with --spot to use the current rate")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("analysis")
	}

	printTable(os.Stdout, results)
	if len(results) < len(symbols) {
		fmt.Printf("\n%d of %d symbols returned no data\n", len(symbols)-len(results), len(symbols))
	}

	if *csvDir != "" {
		path := filepath.Join(*csvDir, export.FileName(core.Analyzer.Clock()))
		if err := writeCSV(path, results); err != nil {
			log.Fatal().Err(err).Msg("export csv")
		}
		fmt.Printf("\nCSV written to %s\n", path)
	}
}

func printTable(w io.Writer, results []model.AnalysisResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Acción\tPrecio ARS\tPrecio USD\tRSI ARS\tRSI USD\tDiferencia\tVar. USD %\tSeñal\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%.2f\t%.4f\t%s\t%s\t%s\t%+.2f\t%s\t\n",
			r.Symbol, r.LocalClose, r.HardClose,
			cell(r.LocalRSI), cell(r.HardRSI), cell(r.Difference),
			r.HardVariationPct, strategy.Describe(r.Signal))
	}
	tw.Flush()
}

func cell(v null.Float) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func writeCSV(path string, results []model.AnalysisResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
