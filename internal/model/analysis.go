package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// AnalysisResult is the per-symbol outcome of a batch analysis.
type AnalysisResult struct {
	Symbol     string        `json:"symbol"`
	Ticker     string        `json:"ticker"`
	Basis      RateBasisKind `json:"basis"`
	AsOf       time.Time     `json:"as_of"`
	LocalClose float64       `json:"local_close"`
	HardClose  float64       `json:"hard_close"`
	Rate       float64       `json:"rate"`
	LocalRSI   null.Float    `json:"local_rsi"`
	HardRSI    null.Float    `json:"hard_rsi"`
	// Difference is HardRSI - LocalRSI, invalid when either side is.
	Difference null.Float `json:"difference"`
	Signal     Signal     `json:"signal"`

	LocalVariationPct float64 `json:"local_variation_pct"`
	HardVariationPct  float64 `json:"hard_variation_pct"`
	HardHigh          float64 `json:"hard_high"`
	HardLow           float64 `json:"hard_low"`
	HardPosition      float64 `json:"hard_position"` // 0.0 ~ 1.0 within the window range

	Series          AlignedSeries    `json:"series"`
	LocalOscillator OscillatorSeries `json:"local_oscillator"`
	HardOscillator  OscillatorSeries `json:"hard_oscillator"`
}
