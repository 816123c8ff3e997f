// Package cache stores rendered scenes and fetched inputs between runs.
//
// # Backends
//
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [RedisCache]: shared entries for several serve instances
//   - [SQLiteCache]: a single local database file
//   - [NullCache]: caching disabled
//
// [Open] picks a backend from a [Config]. All backends expire entries after
// their TTL; a zero TTL never expires.
//
// # Keys
//
// A [Keyer] derives keys from the dataset hash and the render options, so a
// reloaded dataset never serves stale scenes:
//
//	key := keyer.SceneKey(ds.Hash, cache.SceneKeyOpts{Format: "svg", Width: 975, ...})
package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

// Cache is a byte store with expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present and
	// fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	// Clear removes all entries and reports how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Default TTLs.
const (
	// TTLScene applies to rendered artifacts. Scenes are keyed by dataset
	// hash, so the TTL only bounds disk use.
	TTLScene = 7 * 24 * time.Hour

	// TTLTopology applies to topologies downloaded from a URL.
	TTLTopology = 30 * 24 * time.Hour
)

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Backends lists the valid backend names.
var Backends = []string{BackendFile, BackendRedis, BackendSQLite, BackendNone}

// Config selects and configures a backend.
type Config struct {
	Backend string

	// Dir is the directory of the file cache and the default location of
	// the SQLite database.
	Dir string

	// RedisAddr is the host:port of the Redis server.
	RedisAddr string

	// SQLitePath overrides the database file; defaults to Dir/cache.db.
	SQLitePath string

	// Clock drives expiry; defaults to the real clock.
	Clock clockwork.Clock
}

// Open returns the backend named in cfg.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileCache(cfg.Dir, WithClock(cfg.Clock))
	case BackendRedis:
		return NewRedisCache(ctx, cfg.RedisAddr)
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = SQLitePath(cfg.Dir)
		}
		return NewSQLiteCache(path, WithClock(cfg.Clock))
	case BackendNone:
		return NewNullCache(), nil
	}
	return nil, ferrors.New(ferrors.ErrCodeInvalidConfig, "unknown cache backend %q (must be one of: file, redis, sqlite, none)", cfg.Backend)
}

// Option configures the local backends.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock sets the clock used to stamp and check expiry.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

func applyOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
