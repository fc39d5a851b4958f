package ports

import (
	"context"
	"time"
)

// Cache abstracts the caching backend so different implementations (Redis,
// in-memory, instrumented decorators) can be swapped in. Values are opaque
// serialized blobs; the usage protocol (keys, TTL, invalidation) belongs to
// the services.
//
// Get returns (nil, false, nil) for a plain miss. A non-nil error means the
// cache itself failed; callers must treat that as a miss, never as evidence
// of absence, and must not let it block the primary store operation.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is a no-op, not an error.
	Delete(ctx context.Context, key string) error
}
