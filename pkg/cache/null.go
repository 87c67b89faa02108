package cache

import (
	"context"
	"time"
)

// NullCache disables diagram caching: every render recomputes from the
// netlist. The pipeline Runner falls back to it when no cache is configured,
// and tests use it to keep renders deterministic.
type NullCache struct{}

// NewNullCache creates a cache that never stores anything.
func NewNullCache() Cache { return NullCache{} }

// Get always reports a miss.
func (NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the drawing.
func (NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (NullCache) Close() error {
	return nil
}

// Ensure NullCache implements Cache.
var _ Cache = NullCache{}
