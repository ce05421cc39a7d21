package ports

import (
	"context"
	"time"
)

// Cache stores conversion answers.
type Cache interface {
	// Get returns the stored value, or domain.ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value. A zero ttl uses the implementation default.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
