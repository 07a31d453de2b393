package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrEmptyKey = errors.New("lock: key cannot be empty")

type Options struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultOptions() Options {
	return Options{Expiry: 10 * time.Second, Tries: 32, RetryDelay: 100 * time.Millisecond}
}

// Redsync is a Redis-backed distributed mutex keyed by string.
type Redsync struct {
	rs   *redsync.Redsync
	opts Options
	log  *zap.Logger
}

func NewRedsync(rdb redis.UniversalClient, opts Options, log *zap.Logger) *Redsync {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.Expiry <= 0 {
		opts.Expiry = def.Expiry
	}
	if opts.Tries < 1 {
		opts.Tries = def.Tries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	return &Redsync{rs: redsync.New(goredis.NewPool(rdb)), opts: opts, log: log}
}

// WithLock runs fn while holding key. The lock is released even if fn panics.
func (l *Redsync) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	m := l.rs.NewMutex(key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	if err := m.LockContext(ctx); err != nil {
		return fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	defer func() {
		// fresh context: the caller's may already be cancelled
		uctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if ok, err := m.UnlockContext(uctx); !ok || err != nil {
			l.log.Warn("lock release failed", zap.String("key", key), zap.Bool("ok", ok), zap.Error(err))
		}
	}()
	return fn(ctx)
}
