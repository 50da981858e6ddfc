package collector

import (
	"context"
	"time"

	"CCLSentinel/internal/model"
)

// Fetcher retrieves daily bars for a symbol over an inclusive date range.
// Implementations return bars in ascending date order, trading days only.
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error)
	Name() string
}
