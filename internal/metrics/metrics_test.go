package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("ok", time.Now())
	m.ObserveRate("historical", "GGAL.BA/GGAL x10", "ok")
	m.ObserveSymbol("ok")
	m.ObserveBatch(time.Now())
	m.ObserveDropped(3)
	if m.Handler() == nil {
		t.Error("expected a default handler")
	}
}

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveFetch("ok", time.Now())
	m.ObserveFetch("cached", time.Time{})
	m.ObserveSymbol("skipped")
	m.ObserveDropped(0)
	m.ObserveDropped(2)

	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues("cached")); got != 1 {
		t.Errorf("cached fetches = %v", got)
	}
	if got := testutil.ToFloat64(m.SymbolsAnalyzed.WithLabelValues("skipped")); got != 1 {
		t.Errorf("skipped symbols = %v", got)
	}
	if got := testutil.ToFloat64(m.AlignmentDropped); got != 2 {
		t.Errorf("dropped days = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "ccl_gateway_fetch_total") {
		t.Errorf("metrics output missing fetch counter:\n%s", rec.Body.String())
	}
}
