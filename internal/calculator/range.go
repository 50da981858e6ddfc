package calculator

import (
	"errors"
	"math"
)

// CalculateRange returns the high and low close over the whole series.
func CalculateRange(closes []float64) (high, low float64, err error) {
	if len(closes) == 0 {
		return 0, 0, errors.New("no closes provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range closes {
		high = math.Max(high, c)
		low = math.Min(low, c)
	}
	return high, low, nil
}

// CalculatePosition returns where current sits within [low, high] (0.0~1.0).
func CalculatePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Min(1, math.Max(0, pos)), nil
}

// CalculateVariation returns the percentage change from the first to the last close.
func CalculateVariation(closes []float64) (float64, error) {
	if len(closes) == 0 {
		return 0, errors.New("no closes provided")
	}
	if closes[0] == 0 {
		return 0, errors.New("first close is zero")
	}
	return (closes[len(closes)-1]/closes[0] - 1) * 100, nil
}
