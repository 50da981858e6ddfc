package cache

import (
	"context"
	"time"

	"CCLSentinel/internal/model"
)

// NoopStore is used when caching is disabled.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Get(context.Context, string) ([]model.PriceBar, bool, error) { return nil, false, nil }
func (n *NoopStore) Put(context.Context, string, []model.PriceBar, time.Time) error { return nil }
func (n *NoopStore) Close() error                                                   { return nil }
