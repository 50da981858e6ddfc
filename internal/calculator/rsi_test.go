package calculator

import (
	"errors"
	"math"
	"testing"
	"time"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestCalculateRSI_UndefinedUntilLookback(t *testing.T) {
	closes := series(20, func(i int) float64 { return 100 + float64(i%3) })
	rsi, err := CalculateRSI(closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rsi) != len(closes) {
		t.Fatalf("expected %d values, got %d", len(closes), len(rsi))
	}
	for i := 0; i < 14; i++ {
		if rsi[i].Valid {
			t.Errorf("index %d: expected undefined, got %.2f", i, rsi[i].Float64)
		}
	}
	for i := 14; i < len(rsi); i++ {
		if !rsi[i].Valid {
			t.Errorf("index %d: expected defined value", i)
		}
	}
}

func TestCalculateRSI_Saturation(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"monotonic increase", series(30, func(i int) float64 { return 100 + float64(i)*1.5 }), 100},
		{"monotonic decrease", series(30, func(i int) float64 { return 500 - float64(i)*3 }), 0},
		{"flat", series(30, func(int) float64 { return 42 }), 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi, err := CalculateRSI(tt.closes, 14)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := 14; i < len(rsi); i++ {
				if !rsi[i].Valid {
					t.Fatalf("index %d undefined", i)
				}
				if rsi[i].Float64 != tt.want {
					t.Errorf("index %d: got %.4f, want %.1f", i, rsi[i].Float64, tt.want)
				}
			}
		})
	}
}

func TestCalculateRSI_KnownValue(t *testing.T) {
	// changes: +2, -1, +3, -2 ; period 4
	// avgGain = 5/4, avgLoss = 3/4, RS = 5/3, RSI = 100 - 100/(8/3) = 62.5
	closes := []float64{10, 12, 11, 14, 12}
	rsi, err := CalculateRSI(closes, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rsi[4].Valid {
		t.Fatal("expected RSI at index 4")
	}
	assertClose(t, "RSI(4)", rsi[4].Float64, 62.5, 1e-9)

	// Window slides: next change +1 drops the first +2.
	// changes: -1, +3, -2, +1 -> avgGain 1, avgLoss 0.75, RS 4/3, RSI 57.142857
	rsi, _ = CalculateRSI(append(closes, 13), 4)
	assertClose(t, "RSI(4) slid", rsi[5].Float64, 400.0/7.0, 1e-9)
}

func TestCalculateRSI_AlwaysInRange(t *testing.T) {
	closes := series(200, func(i int) float64 {
		return 1000 + 300*math.Sin(float64(i)/3) + float64(i%7)*11
	})
	for _, period := range []int{1, 2, 7, 14, 30} {
		rsi, err := CalculateRSI(closes, period)
		if err != nil {
			t.Fatalf("period %d: unexpected error: %v", period, err)
		}
		for i, v := range rsi {
			if !v.Valid {
				continue
			}
			if math.IsNaN(v.Float64) || v.Float64 < 0 || v.Float64 > 100 {
				t.Errorf("period %d index %d: out of range %v", period, i, v.Float64)
			}
		}
	}
}

func TestCalculateRSI_InvalidPeriod(t *testing.T) {
	if _, err := CalculateRSI([]float64{1, 2, 3}, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestCalculateRSI_ShortSeries(t *testing.T) {
	rsi, err := CalculateRSI([]float64{1, 2, 3}, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range rsi {
		if v.Valid {
			t.Errorf("index %d: expected undefined", i)
		}
	}
}

func TestOscillator_PairsDates(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 6)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	osc, err := Oscillator(dates, []float64{1, 2, 3, 4, 5, 6}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !osc[5].Date.Equal(dates[5]) {
		t.Errorf("expected date %v, got %v", dates[5], osc[5].Date)
	}
	if v := osc.Latest(); !v.Valid || v.Float64 != 100 {
		t.Errorf("expected latest 100, got %+v", v)
	}
	if _, err := Oscillator(dates[:2], []float64{1}, 3); err == nil {
		t.Error("expected length mismatch error")
	}
}
