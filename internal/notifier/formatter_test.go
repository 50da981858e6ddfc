package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"CCLSentinel/internal/model"
)

var reportTime = time.Date(2025, 6, 30, 18, 5, 0, 0, time.UTC)

func TestFormatBatchReport(t *testing.T) {
	results := []model.AnalysisResult{
		{
			Symbol: "GGAL", Basis: model.BasisHistorical, LocalClose: 6100, HardClose: 5.08,
			LocalRSI: null.FloatFrom(61.2), HardRSI: null.FloatFrom(24.5), Difference: null.FloatFrom(-36.7),
			Signal: model.SignalOversold,
		},
		{
			Symbol: "BBAR", Basis: model.BasisHistorical, LocalClose: 2450, HardClose: 2.04,
			Signal: model.SignalNeutral,
		},
	}
	msg := FormatBatchReport(results, 3, 14, 180, reportTime)

	for _, want := range []string{"2025-06-30 18:05", "GGAL", "24.5", "-36.7", "Sobrevendido", "n/d", "1 de 3"} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "tipo de cambio actual") {
		t.Error("historical basis must not carry the spot warning")
	}
}

func TestFormatBatchReport_SpotAndEmpty(t *testing.T) {
	spot := []model.AnalysisResult{{Symbol: "GGAL", Basis: model.BasisSpot, Signal: model.SignalNeutral}}
	if msg := FormatBatchReport(spot, 1, 14, 30, reportTime); !strings.Contains(msg, "tipo de cambio actual") {
		t.Errorf("expected spot warning:\n%s", msg)
	}
	if msg := FormatBatchReport(nil, 2, 14, 30, reportTime); !strings.Contains(msg, "Sin datos") {
		t.Errorf("expected empty notice:\n%s", msg)
	}
}

func TestFormatRateStatus(t *testing.T) {
	rate := &model.CurrentRate{
		Candidate:  model.RateCandidate{Local: "GGAL.BA", Hard: "GGAL", Multiplier: 10},
		Date:       time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC),
		Rate:       1187.5,
		LocalClose: 5937.5,
		HardClose:  50,
	}
	msg := FormatRateStatus(rate)
	for _, want := range []string{"1187.50", "GGAL.BA: $5937.50", "GGAL: US$50.00", "2025-06-27"} {
		if !strings.Contains(msg, want) {
			t.Errorf("status missing %q:\n%s", want, msg)
		}
	}
	if !strings.Contains(FormatRateStatus(nil), "No se pudo") {
		t.Error("expected failure message for nil rate")
	}
}
