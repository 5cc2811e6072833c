// Package cache provides the response cache used at the warehouse boundary.
//
// Lineage and classification lookups are round trips to the warehouse and
// are repeated across runs, so their replies are cached by key with a TTL.
// Three backends exist:
//   - [FileCache]: one JSON file per entry, for CLI use
//   - [RedisCache]: shared cache for the HTTP server and multi-user setups
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer]; [ScopedKeyer] prefixes them so that different
// accounts or roles, which may see different lineage, never share entries.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
