// Package cache stores fetched page links so repeated crawls of the same
// pages skip the network.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per key under a local directory, for CLI use
//   - [RedisCache]: a shared Redis instance, so several viewers or a
//     long-running server can reuse each other's fetches
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer]. Values are opaque bytes; the crawler stores
// JSON-encoded link lists.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers that require a value to be present.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of 0 means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Dir       string // FileCache directory
	RedisAddr string // host:port of the Redis server
	RedisDB   int
}

// Open returns the backend named by opts.Backend. An empty backend means
// file.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, RedisOptions{Addr: opts.RedisAddr, DB: opts.RedisDB})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, errors.New("unknown cache backend: " + opts.Backend)
	}
}

// Clearer is implemented by backends that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
