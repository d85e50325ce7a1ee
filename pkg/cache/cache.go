// Package cache stores binned grids and rendered artifacts between runs.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the render service and [NullCache] when caching is disabled. Keys
// come from a [Keyer]; [ScopedKeyer] adds a namespace prefix so that
// several deployments can share one Redis instance.
//
// Entries are keyed by content, not by name: a grid key hashes the
// matrix fingerprint together with every option that affects binning, and
// an artifact key hashes the encoded grid together with every render
// option.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is not an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Default time-to-live values.
const (
	TTLGrid     = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
