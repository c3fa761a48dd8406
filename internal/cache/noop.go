package cache

import (
	"context"
	"time"

	"fin-agents/internal/ratio"
)

// NoOpCache is a cache implementation that does nothing.
// Used when no cache is configured or Redis is unavailable - all operations
// succeed but nothing is stored (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetRatios always returns nil (cache miss)
func (c *NoOpCache) GetRatios(ctx context.Context, key string) ([]ratio.Row, error) {
	return nil, nil
}

// SetRatios does nothing and always succeeds
func (c *NoOpCache) SetRatios(ctx context.Context, key string, rows []ratio.Row, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
