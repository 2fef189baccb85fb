package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/pipestudio/config"
	"github.com/kbukum/pipestudio/logger"
)

// Supported state drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Backend holds the shared resources of one configured driver. Typed stores
// for individual buckets are opened from it with Open.
type Backend struct {
	driver string
	path   string
	prefix string
	rdb    *goredis.Client
	log    *logger.Logger

	mu     sync.Mutex
	memory map[string]any
}

// NewBackend connects the driver named in cfg. For redis the connection is
// checked with PING and an error is returned if the server is unreachable.
func NewBackend(ctx context.Context, cfg config.StateConfig) (*Backend, error) {
	b := &Backend{driver: cfg.Driver, path: cfg.Path, log: logger.Get("store"), memory: make(map[string]any)}

	switch cfg.Driver {
	case DriverMemory:
	case DriverFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: file driver requires a path")
		}
	case DriverRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("store: redis driver requires an addr")
		}
		b.prefix = cfg.Redis.Prefix
		b.rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := b.rdb.Ping(pingCtx).Err(); err != nil {
			b.rdb.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("store: redis ping %s: %w", cfg.Redis.Addr, err)
		}
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}

	b.log.Info("State backend ready", logger.Fields("driver", cfg.Driver))
	return b, nil
}

// Driver returns the configured driver name.
func (b *Backend) Driver() string { return b.driver }

// Close releases the backend's connections.
func (b *Backend) Close() error {
	if b.rdb != nil {
		return b.rdb.Close()
	}
	return nil
}

// Open returns a typed store for bucket on the backend. Buckets keep unrelated
// value types apart: files live in separate subdirectories and redis keys get
// a "<bucket>:" segment after the configured prefix. Memory buckets live as
// long as the backend, so opening a bucket twice shares its contents.
func Open[C any](b *Backend, bucket string) (ContextStore[C], error) {
	switch b.driver {
	case DriverMemory:
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.memory[bucket]; ok {
			s, ok := existing.(*MemoryStore[C])
			if !ok {
				return nil, fmt.Errorf("store: bucket %q holds another value type", bucket)
			}
			return s, nil
		}
		s := NewMemoryStore[C]()
		b.memory[bucket] = s
		return s, nil
	case DriverFile:
		return NewFileStore[C](filepath.Join(b.path, bucket))
	case DriverRedis:
		return NewRedisStore[C](b.rdb, b.prefix+bucket+":"), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", b.driver)
	}
}
