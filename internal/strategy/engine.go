package strategy

import (
	"github.com/guregu/null/v6"

	"CCLSentinel/internal/model"
)

const (
	OversoldBelow   = 30.0
	OverboughtAbove = 70.0
)

// Bands is the ordered threshold table; the first matching band wins.
var Bands = []struct {
	Match  func(rsi float64) bool
	Signal model.Signal
}{
	{func(rsi float64) bool { return rsi < OversoldBelow }, model.SignalOversold},
	{func(rsi float64) bool { return rsi > OverboughtAbove }, model.SignalOverbought},
}

// Classify labels a symbol from its hard-currency RSI alone. An undefined
// RSI is neutral.
func Classify(hardRSI null.Float) model.Signal {
	if !hardRSI.Valid {
		return model.SignalNeutral
	}
	for _, b := range Bands {
		if b.Match(hardRSI.Float64) {
			return b.Signal
		}
	}
	return model.SignalNeutral
}

// Describe returns the display label used by reports and exports.
func Describe(s model.Signal) string {
	switch s {
	case model.SignalOversold:
		return "Sobrevendido"
	case model.SignalOverbought:
		return "Sobrecomprado"
	default:
		return "Neutral"
	}
}
