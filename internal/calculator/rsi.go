package calculator

import (
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"

	"CCLSentinel/internal/model"
)

// CalculateRSI computes the RSI at every index of closes using simple moving
// averages of gains and losses over the trailing period changes.
//
// Index i is defined once period changes precede it (i >= period); earlier
// entries are left invalid. A window with no gains and no losses reads 50,
// a window with gains and no losses reads 100.
func CalculateRSI(closes []float64, period int) ([]null.Float, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := make([]null.Float, len(closes))
	if len(closes) <= period {
		return out, nil
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	for i := period; i < len(closes); i++ {
		avgGain, err := CalculateSMA(gains[:i], period)
		if err != nil {
			return nil, err
		}
		avgLoss, err := CalculateSMA(losses[:i], period)
		if err != nil {
			return nil, err
		}
		if v, ok := rsiFromAverages(avgGain, avgLoss); ok {
			out[i] = null.FloatFrom(v)
		}
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) (float64, bool) {
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return 0, false
	}
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50.0, true // flat: no net direction
	case avgLoss == 0:
		return 100.0, true
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	return math.Min(100, math.Max(0, rsi)), true
}

// Oscillator pairs CalculateRSI output with its dates.
func Oscillator(dates []time.Time, closes []float64, period int) (model.OscillatorSeries, error) {
	if len(dates) != len(closes) {
		return nil, fmt.Errorf("oscillator: %d dates for %d closes", len(dates), len(closes))
	}
	values, err := CalculateRSI(closes, period)
	if err != nil {
		return nil, err
	}
	series := make(model.OscillatorSeries, len(values))
	for i, v := range values {
		series[i] = model.OscillatorPoint{Date: dates[i], Value: v}
	}
	return series, nil
}
