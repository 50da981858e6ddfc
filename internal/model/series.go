package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// AlignedPoint holds one day of a target instrument in both currencies.
type AlignedPoint struct {
	Date       time.Time `json:"date"`
	LocalClose float64   `json:"local_close"`
	HardClose  float64   `json:"hard_close"`
	Rate       float64   `json:"rate"`
}

// AlignedSeries is a date-ordered series with a usable rate on every day.
type AlignedSeries []AlignedPoint

func (s AlignedSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, p := range s {
		dates[i] = p.Date
	}
	return dates
}

func (s AlignedSeries) LocalCloses() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.LocalClose
	}
	return closes
}

func (s AlignedSeries) HardCloses() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.HardClose
	}
	return closes
}

// Since returns the suffix of the series starting at the first date on or after from.
func (s AlignedSeries) Since(from time.Time) AlignedSeries {
	for i, p := range s {
		if !p.Date.Before(from) {
			return s[i:]
		}
	}
	return AlignedSeries{}
}

// OscillatorPoint is an RSI reading; Value is invalid while history is insufficient.
type OscillatorPoint struct {
	Date  time.Time  `json:"date"`
	Value null.Float `json:"value"`
}

// OscillatorSeries is a date-ordered RSI series.
type OscillatorSeries []OscillatorPoint

// Latest returns the last reading, invalid when the series is empty.
func (s OscillatorSeries) Latest() null.Float {
	if len(s) == 0 {
		return null.Float{}
	}
	return s[len(s)-1].Value
}

// Since returns the suffix of the series starting at the first date on or after from.
func (s OscillatorSeries) Since(from time.Time) OscillatorSeries {
	for i, p := range s {
		if !p.Date.Before(from) {
			return s[i:]
		}
	}
	return OscillatorSeries{}
}
