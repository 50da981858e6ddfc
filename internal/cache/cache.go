package cache

import (
	"context"
	"time"

	"CCLSentinel/internal/model"
)

// Store keeps fetched daily bars for a short, advisory time-to-live.
// Entries live for the current session only.
type Store interface {
	Get(ctx context.Context, key string) ([]model.PriceBar, bool, error)
	Put(ctx context.Context, key string, bars []model.PriceBar, expiresAt time.Time) error
	Close() error
}

// Key builds the cache key for a symbol and date range.
func Key(symbol string, start, end time.Time) string {
	return symbol + "|" + start.Format("2006-01-02") + "|" + end.Format("2006-01-02")
}
