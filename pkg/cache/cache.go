// Package cache provides byte-level caching for pivotframe pipelines.
//
// A [Cache] stores opaque byte slices under string keys with an optional
// time-to-live. The backends are:
//   - [FileCache]: entry files under a directory, used by the CLI
//   - [RedisCache]: a shared Redis instance, used by deployed servers
//   - [MemoryCache]: process memory, for a single server process
//   - [NullCache]: never stores anything, used when caching is disabled
//
// Keys are produced by a [Keyer] so that every caller derives the same key
// for the same frame and options. Frames are identified by the SHA-256 of
// their packed record (see [Hash]).
//
// # Usage
//
//	c, err := cache.NewFileCache(dir)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	key := cache.NewDefaultKeyer().SimulateKey(cache.Hash([]byte(record)), cache.SimulateKeyOpts{Ticks: 100})
//	if data, hit, err := c.Get(ctx, key); err == nil && hit {
//	    // use data
//	}
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry type. Simulation results depend
// only on their input, so they can live long.
const (
	TTLSimulation = 7 * 24 * time.Hour
	TTLArtifact   = 7 * 24 * time.Hour
)

// Cache is a byte-level key/value cache. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is reported with hit == false
	// and a nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}
