package cache

import (
	"context"
	"time"
)

// IdempotencyStore remembers which Idempotency-Key values have already been
// processed so that a retried mutation is not applied twice
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
