package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CCLSentinel/internal/analysis"
	"CCLSentinel/internal/export"
	"CCLSentinel/internal/model"
)

const (
	DefaultAddr = ":8080"

	MinLookback   = 7
	MaxLookback   = 30
	MinWindowDays = 30
	MaxWindowDays = 365
)

// RateService resolves implied exchange rates.
type RateService interface {
	ResolveCurrentRate(ctx context.Context) (*model.CurrentRate, bool)
	ResolveHistoricalRate(ctx context.Context, windowDays int) (*model.RateSeries, bool)
}

// AnalysisService runs analysis batches.
type AnalysisService interface {
	AnalyzeWith(ctx context.Context, symbols []string, lookback, windowDays int, spotFallback bool) ([]model.AnalysisResult, error)
}

// Response is the JSON envelope of every API reply.
type Response[T any] struct {
	Data  *T     `json:"data"`
	Error string `json:"error"`
}

// Defaults are applied when a request omits a parameter.
type Defaults struct {
	Symbols      []string
	Lookback     int
	WindowDays   int
	SpotFallback bool
}

type Server struct {
	Rates    RateService
	Analysis AnalysisService
	Metrics  http.Handler
	Defaults Defaults
	Clock    func() time.Time

	logger zerolog.Logger
}

func New(rates RateService, an AnalysisService, metricsHandler http.Handler, d Defaults) *Server {
	if len(d.Symbols) == 0 {
		d.Symbols = analysis.DefaultSymbols
	}
	if d.Lookback == 0 {
		d.Lookback = analysis.DefaultLookback
	}
	if d.WindowDays == 0 {
		d.WindowDays = analysis.DefaultWindowDays
	}
	return &Server{
		Rates:    rates,
		Analysis: an,
		Metrics:  metricsHandler,
		Defaults: d,
		Clock:    time.Now,
		logger:   log.With().Str("component", "http").Logger(),
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/rate/current", s.currentRate)
		r.Get("/rate/history", s.rateHistory)
		r.Get("/analyze", s.analyze)
		r.Get("/analyze.csv", s.analyzeCSV)
	})
	return r
}

// HTTPServer wraps Routes in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(started)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) currentRate(w http.ResponseWriter, r *http.Request) {
	rate, ok := s.Rates.ResolveCurrentRate(r.Context())
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "current exchange rate unavailable")
		return
	}
	writeJSON(w, http.StatusOK, Response[model.CurrentRate]{Data: rate})
}

func (s *Server) rateHistory(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", s.Defaults.WindowDays, MinWindowDays, MaxWindowDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	series, ok := s.Rates.ResolveHistoricalRate(r.Context(), days)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "historical exchange rate unavailable")
		return
	}
	writeJSON(w, http.StatusOK, Response[model.RateSeries]{Data: series})
}

type analyzeRequest struct {
	symbols      []string
	lookback     int
	windowDays   int
	spotFallback bool
	detail       bool
}

func (s *Server) parseAnalyze(r *http.Request) (analyzeRequest, error) {
	req := analyzeRequest{symbols: s.Defaults.Symbols, spotFallback: s.Defaults.SpotFallback}
	q := r.URL.Query()

	if raw := q.Get("symbols"); raw != "" {
		req.symbols = nil
		for _, sym := range strings.Split(raw, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				req.symbols = append(req.symbols, sym)
			}
		}
		if len(req.symbols) == 0 {
			return req, errors.New("symbols is empty")
		}
	}
	if len(req.symbols) > analysis.MaxSymbols {
		return req, fmt.Errorf("at most %d symbols per request", analysis.MaxSymbols)
	}

	var err error
	if req.lookback, err = intParam(r, "lookback", s.Defaults.Lookback, MinLookback, MaxLookback); err != nil {
		return req, err
	}
	if req.windowDays, err = intParam(r, "days", s.Defaults.WindowDays, MinWindowDays, MaxWindowDays); err != nil {
		return req, err
	}

	switch q.Get("fallback") {
	case "":
	case "spot":
		req.spotFallback = true
	case "none":
		req.spotFallback = false
	default:
		return req, errors.New("fallback must be spot or none")
	}
	req.detail = q.Get("detail") == "true" || q.Get("detail") == "1"
	return req, nil
}

func (s *Server) runAnalyze(w http.ResponseWriter, r *http.Request) (analyzeRequest, []model.AnalysisResult, bool) {
	req, err := s.parseAnalyze(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, nil, false
	}
	results, err := s.Analysis.AnalyzeWith(r.Context(), req.symbols, req.lookback, req.windowDays, req.spotFallback)
	if errors.Is(err, analysis.ErrRateResolutionFailed) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return req, nil, false
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("analysis failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return req, nil, false
	}
	return req, results, true
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	req, results, ok := s.runAnalyze(w, r)
	if !ok {
		return
	}
	if req.detail {
		writeJSON(w, http.StatusOK, Response[[]model.AnalysisResult]{Data: &results})
		return
	}
	records := export.Records(results)
	writeJSON(w, http.StatusOK, Response[[]export.Record]{Data: &records})
}

func (s *Server) analyzeCSV(w http.ResponseWriter, r *http.Request) {
	_, results, ok := s.runAnalyze(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(s.Clock())+`"`)
	if err := export.WriteCSV(w, results); err != nil {
		s.logger.Error().Err(err).Msg("write csv")
	}
}

func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", name, lo, hi)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response[any]{Error: msg})
}
