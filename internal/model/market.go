package model

import (
	"sort"
	"time"
)

// PriceBar represents one trading day for one instrument.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Day truncates t to its calendar day, expressed as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Closes extracts the close column from bars.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// UniqueDays returns bars in ascending date order with one bar per calendar
// day. When a day repeats, the bar that came last in the input wins.
func UniqueDays(bars []PriceBar) []PriceBar {
	sorted := make([]PriceBar, len(bars))
	for i, b := range bars {
		b.Date = Day(b.Date)
		sorted[i] = b
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
