package calculator

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidPeriod is returned for a non-positive lookback.
var ErrInvalidPeriod = errors.New("period must be positive")

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	return stat.Mean(values[len(values)-period:], nil), nil
}
