package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"fin-agents/internal/ratio"
)

// Cache stores computed ratio tables keyed by the exact input table.
type Cache interface {
	// GetRatios retrieves cached rows by key
	// Returns nil if not found
	GetRatios(ctx context.Context, key string) ([]ratio.Row, error)

	// SetRatios stores rows with TTL
	SetRatios(ctx context.Context, key string, rows []ratio.Row, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// GenerateCacheKey hashes the recognized total-assets phrases and every raw
// cell of the table, in order.
func GenerateCacheKey(totalAssetPhrases []string, raw []ratio.RawLineItem) string {
	h := sha256.New()
	// unit separator keeps cell boundaries unambiguous
	const sep = "\x1f"
	h.Write([]byte(strings.Join(totalAssetPhrases, sep)))
	h.Write([]byte("\x1e"))
	for _, r := range raw {
		h.Write([]byte(r.Label + sep + r.Prior + sep + r.Current + "\x1e"))
	}
	return hex.EncodeToString(h.Sum(nil))
}
