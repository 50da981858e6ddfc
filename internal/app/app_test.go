package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"CCLSentinel/internal/collector"
	"CCLSentinel/internal/config"
	"CCLSentinel/internal/model"
)

func TestNew_WiresCachedCore(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	day := model.Day(time.Now())
	mock := &collector.MockFetcher{Bars: map[string][]model.PriceBar{
		"GGAL.BA": {{Date: day, Close: 6000}},
		"GGAL":    {{Date: day, Close: 50}},
	}}

	a, err := New(cfg, mock)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	for i := 0; i < 2; i++ {
		rate, ok := a.Resolver.ResolveCurrentRate(context.Background())
		if !ok || rate.Rate != 1200 {
			t.Fatalf("unexpected rate: %+v, %v", rate, ok)
		}
	}
	if calls := len(mock.Calls()); calls != 2 {
		t.Errorf("expected the second lookup to be cached, provider saw %d calls", calls)
	}
	if a.Analyzer.LocalSuffix != ".BA" || a.Analyzer.Concurrency != cfg.Analysis.Concurrency {
		t.Errorf("analyzer not configured: %+v", a.Analyzer)
	}
}

func TestNewFetcher(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if name := NewFetcher(cfg).Name(); name != "yahoo" {
		t.Errorf("default provider = %s", name)
	}
	cfg.DataSource.Provider = config.ProviderREST
	cfg.DataSource.BaseURL = "http://localhost:9000"
	if name := NewFetcher(cfg).Name(); name != "rest" {
		t.Errorf("rest provider = %s", name)
	}
}
