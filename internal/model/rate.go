package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRateSeries is returned when a rate series breaks ordering or positivity.
var ErrInvalidRateSeries = errors.New("invalid rate series")

// RateCandidate is one dual-listed reference pair used to imply the exchange rate.
// Multiplier corrects for the ADR ratio between the two legs.
type RateCandidate struct {
	Local      string  `yaml:"local" json:"local"`
	Hard       string  `yaml:"hard" json:"hard"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

func (c RateCandidate) String() string {
	return fmt.Sprintf("%s/%s x%g", c.Local, c.Hard, c.Multiplier)
}

// RatePoint is the implied rate (local units per hard-currency unit) on one day.
type RatePoint struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// RateSeries is a date-ordered implied exchange rate history.
type RateSeries struct {
	Candidate RateCandidate `json:"candidate"`
	Points    []RatePoint   `json:"points"`
}

// Len returns the number of observations.
func (s *RateSeries) Len() int { return len(s.Points) }

// Latest returns the most recent observation.
func (s *RateSeries) Latest() (RatePoint, bool) {
	if len(s.Points) == 0 {
		return RatePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Validate checks that dates strictly increase and every rate is positive.
func (s *RateSeries) Validate() error {
	for i, p := range s.Points {
		if !(p.Rate > 0) {
			return fmt.Errorf("%w: non-positive rate %v on %s", ErrInvalidRateSeries, p.Rate, p.Date.Format("2006-01-02"))
		}
		if i > 0 && !p.Date.After(s.Points[i-1].Date) {
			return fmt.Errorf("%w: date %s not after %s", ErrInvalidRateSeries,
				p.Date.Format("2006-01-02"), s.Points[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// CurrentRate is a single-point implied rate together with the legs it came from.
type CurrentRate struct {
	Candidate  RateCandidate `json:"candidate"`
	Date       time.Time     `json:"date"`
	Rate       float64       `json:"rate"`
	LocalClose float64       `json:"local_close"`
	HardClose  float64       `json:"hard_close"`
}
