package aligner

import (
	"sort"
	"time"

	"CCLSentinel/internal/model"
)

// Align converts bars to the hard currency using rates. Each day takes the
// rate of the same day, else the most recent earlier day (forward fill), else
// the earliest later day (backward fill, leading gaps only). Days that still
// have no positive rate are dropped, as are repeated or out-of-order days;
// the second return value counts them.
func Align(bars []model.PriceBar, rates *model.RateSeries) (model.AlignedSeries, int) {
	var points []model.RatePoint
	if rates != nil {
		points = rates.Points
	}

	out := make(model.AlignedSeries, 0, len(bars))
	dropped := 0
	for _, b := range bars {
		day := model.Day(b.Date)
		rate, ok := fill(points, day)
		if !ok || !(b.Close > 0) || !after(out, day) {
			dropped++
			continue
		}
		out = append(out, point(day, b.Close, rate))
	}
	return out, dropped
}

// AlignFixed converts every bar with the same rate. It is the degraded path
// used when no historical rate series could be resolved.
func AlignFixed(bars []model.PriceBar, rate float64) (model.AlignedSeries, int) {
	if !(rate > 0) {
		return model.AlignedSeries{}, len(bars)
	}
	out := make(model.AlignedSeries, 0, len(bars))
	dropped := 0
	for _, b := range bars {
		day := model.Day(b.Date)
		if !(b.Close > 0) || !after(out, day) {
			dropped++
			continue
		}
		out = append(out, point(day, b.Close, rate))
	}
	return out, dropped
}

// fill looks up the rate for day; points must be sorted by date.
func fill(points []model.RatePoint, day time.Time) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	// first point strictly after day
	idx := sort.Search(len(points), func(k int) bool { return points[k].Date.After(day) })
	var rate float64
	if idx > 0 {
		rate = points[idx-1].Rate
	} else {
		rate = points[0].Rate
	}
	return rate, rate > 0
}

func point(day time.Time, localClose, rate float64) model.AlignedPoint {
	return model.AlignedPoint{
		Date:       day,
		LocalClose: localClose,
		HardClose:  localClose / rate,
		Rate:       rate,
	}
}

// after reports whether day extends the series strictly forward.
func after(s model.AlignedSeries, day time.Time) bool {
	return len(s) == 0 || day.After(s[len(s)-1].Date)
}
