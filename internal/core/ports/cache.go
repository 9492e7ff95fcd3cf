package ports

import (
	"context"
	"time"
)

// Cache is a time-aware key-value store. Values expire after the given ttl.
type Cache interface {
	// Get returns the value for the key and whether it was found and still
	// valid.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the value for the key for the given duration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
