package model

// Signal is the three-way label derived from the hard-currency RSI.
type Signal string

const (
	SignalOversold   Signal = "oversold"
	SignalNeutral    Signal = "neutral"
	SignalOverbought Signal = "overbought"
)

// RateBasisKind says how the hard-currency series was converted.
type RateBasisKind string

const (
	// BasisHistorical converts each day with that day's implied rate.
	BasisHistorical RateBasisKind = "historical"
	// BasisSpot applies one current rate uniformly across history (degraded).
	BasisSpot RateBasisKind = "spot"
)

// RateBasis is the conversion basis resolved once per batch.
type RateBasis struct {
	Kind       RateBasisKind `json:"kind"`
	Historical *RateSeries   `json:"historical,omitempty"`
	Spot       *CurrentRate  `json:"spot,omitempty"`
}
