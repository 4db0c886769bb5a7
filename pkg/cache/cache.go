// Package cache provides the query cache used to answer repeated
// connected-node requests without re-running the traversal.
//
// The Cache interface has two implementations:
//   - redis: Redis-backed storage for production multi-instance deployments
//   - null: No-op cache for tests and single-shot CLI usage
//
// Cache keys embed the flowchart revision (see [QueryKey]), so a write to a
// flowchart invalidates its cached queries by construction: stale entries
// are simply never asked for again and age out via TTL.
package cache

import (
	"context"
	"time"
)

// DefaultQueryTTL is how long cached query results are kept.
// Revision-scoped keys make stale reads impossible, so the TTL exists only
// to bound memory in redis.
const DefaultQueryTTL = 15 * time.Minute

// Cache stores opaque byte values under string keys with a TTL.
type Cache interface {
	// Get retrieves a value. The second return reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
