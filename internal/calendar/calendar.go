package calendar

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scmhub/calendar"
)

// DefaultMIC is Bolsas y Mercados Argentinos.
const DefaultMIC = "xbue"

// TradingCalendar answers business-day questions for one exchange.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
}

// Get returns the calendar for mic, falling back to NYSE and then to a plain
// Monday-Friday week when no exchange calendar is available.
func Get(mic string) *TradingCalendar {
	mic = strings.ToLower(mic)
	if mic == "" {
		mic = DefaultMIC
	}
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		log.Warn().Str("mic", mic).Msg("exchange calendar not found, falling back to xnys")
		cal = calendar.GetCalendar("xnys")
	}
	if cal == nil {
		log.Warn().Msg("no exchange calendar available, using Mon-Fri")
		return &TradingCalendar{Fallback: true}
	}
	return &TradingCalendar{Calendar: cal}
}

// IsTradingDay reports whether date is a business day.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Fallback || tc.Calendar == nil {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// LeadInStart walks back from before until n trading days strictly precede it,
// returning the earliest of them. n <= 0 returns before unchanged.
func (tc *TradingCalendar) LeadInStart(before time.Time, n int) time.Time {
	d := before
	for counted := 0; counted < n; {
		d = d.AddDate(0, 0, -1)
		if tc.IsTradingDay(d) {
			counted++
		}
	}
	return d
}
