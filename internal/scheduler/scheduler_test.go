package scheduler

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"CCLSentinel/internal/analysis"
	"CCLSentinel/internal/model"
)

type fakeAnalyzer struct {
	got []string
	err error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, symbols []string, _, _ int) ([]model.AnalysisResult, error) {
	f.got = symbols
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.AnalysisResult, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, model.AnalysisResult{Symbol: s, HardRSI: null.FloatFrom(25), Signal: model.SignalOversold})
	}
	return out, nil
}

type fakeRates struct{ rate *model.CurrentRate }

func (f fakeRates) ResolveCurrentRate(context.Context) (*model.CurrentRate, bool) {
	return f.rate, f.rate != nil
}

type recordingSender struct{ sent []string }

func (r *recordingSender) SendWithRetry(_ context.Context, text string, _ int) error {
	r.sent = append(r.sent, text)
	return nil
}

func newTestScheduler(an *fakeAnalyzer, rates fakeRates) (*Scheduler, *recordingSender) {
	sender := &recordingSender{}
	s := NewScheduler(context.Background(), an, rates, sender, time.UTC)
	s.Clock = func() time.Time { return time.Date(2025, 6, 30, 17, 30, 0, 0, time.UTC) }
	return s, sender
}

func TestHandleCommand_Analyze(t *testing.T) {
	an := &fakeAnalyzer{}
	s, _ := newTestScheduler(an, fakeRates{})

	reply := s.HandleCommand(context.Background(), "/analyze GGAL PAMP")
	if !reflect.DeepEqual(an.got, []string{"GGAL", "PAMP"}) {
		t.Errorf("analyzed %v", an.got)
	}
	if !strings.Contains(reply, "PAMP") || !strings.Contains(reply, "Sobrevendido") {
		t.Errorf("unexpected reply:\n%s", reply)
	}

	s.HandleCommand(context.Background(), "/analyze@CCLBot")
	if !reflect.DeepEqual(an.got, analysis.DefaultSymbols) {
		t.Errorf("expected default symbols, got %v", an.got)
	}
}

func TestHandleCommand_AnalyzeRateFailure(t *testing.T) {
	s, _ := newTestScheduler(&fakeAnalyzer{err: analysis.ErrRateResolutionFailed}, fakeRates{})
	if reply := s.HandleCommand(context.Background(), "/analyze"); !strings.Contains(reply, "dólar CCL") {
		t.Errorf("unexpected reply: %s", reply)
	}
}

func TestHandleCommand_Rate(t *testing.T) {
	rate := &model.CurrentRate{
		Candidate: model.RateCandidate{Local: "GGAL.BA", Hard: "GGAL", Multiplier: 10},
		Rate:      1190, LocalClose: 5950, HardClose: 50,
	}
	s, _ := newTestScheduler(&fakeAnalyzer{}, fakeRates{rate: rate})
	if reply := s.HandleCommand(context.Background(), "/rate"); !strings.Contains(reply, "1190.00") {
		t.Errorf("unexpected reply: %s", reply)
	}

	s.Rates = fakeRates{}
	if reply := s.HandleCommand(context.Background(), "/ccl"); !strings.Contains(reply, "No se pudo") {
		t.Errorf("unexpected reply: %s", reply)
	}
}

func TestHandleCommand_Help(t *testing.T) {
	s, _ := newTestScheduler(&fakeAnalyzer{}, fakeRates{})
	for _, cmd := range []string{"", "hola", "/start"} {
		if reply := s.HandleCommand(context.Background(), cmd); !strings.Contains(reply, "/analyze") {
			t.Errorf("%q: expected help, got %s", cmd, reply)
		}
	}
}

func TestRunDailyNow_SendsReport(t *testing.T) {
	an := &fakeAnalyzer{}
	s, sender := newTestScheduler(an, fakeRates{})
	s.Symbols = []string{"BBAR"}
	s.RunDailyNow()
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "BBAR") {
		t.Fatalf("unexpected sends: %v", sender.sent)
	}
}

func TestRegisterDaily_RejectsBadSpec(t *testing.T) {
	s, _ := newTestScheduler(&fakeAnalyzer{}, fakeRates{})
	if err := s.RegisterDaily("not a cron"); err == nil {
		t.Error("expected error for invalid cron spec")
	}
	if err := s.RegisterDaily("0 30 17 * * 1-5"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHandleCommand_AnalyzeTooManySymbols(t *testing.T) {
	an := &fakeAnalyzer{}
	s, _ := newTestScheduler(an, fakeRates{})

	syms := make([]string, analysis.MaxSymbols+1)
	for i := range syms {
		syms[i] = "GGAL"
	}
	reply := s.HandleCommand(context.Background(), "/analyze "+strings.Join(syms, " "))
	if !strings.Contains(reply, "Máximo") {
		t.Errorf("expected limit message, got %s", reply)
	}
	if an.got != nil {
		t.Errorf("analyzer must not run over the limit, got %v", an.got)
	}

	s.HandleCommand(context.Background(), "/analyze "+strings.Join(syms[1:], " "))
	if len(an.got) != analysis.MaxSymbols {
		t.Errorf("expected %d symbols analyzed, got %d", analysis.MaxSymbols, len(an.got))
	}
}
