// Package cache stores intermediate results of the tree pipeline so repeated
// runs over the same alignment skip recomputation.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for a
// shared server deployment and [NullCache] when caching is off. Keys come
// from a [Keyer], which hashes every input that affects a result.
package cache

import (
	"context"
	"time"
)

// Default lifetimes per entry kind. Results are pure functions of their
// keys, so these only bound disk and memory use.
const (
	TTLTree      = 7 * 24 * time.Hour
	TTLBootstrap = 30 * 24 * time.Hour
	TTLRender    = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss
	// (hit == false) and not an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
