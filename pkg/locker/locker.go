// Package locker provides per-key mutual exclusion across requests. The
// Redis implementation spans processes; the local one guards a single
// process and is used when Redis is disabled.
package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"english_tutor_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotAcquired = errors.New("lock not acquired")

type Locker interface {
	// Acquire blocks until the lock for key is held or ctx ends. The
	// returned function releases it.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

const retryInterval = 50 * time.Millisecond

type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl}
}

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// extendScript resets the TTL only if we still own the key.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	full := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", full, err)
		}
		if ok {
			le := newLease(full, l.ttl/3,
				func(ctx context.Context) (bool, error) {
					n, err := extendScript.Run(ctx, l.client, []string{full}, token, l.ttl.Milliseconds()).Int64()
					return n == 1, err
				},
				func(ctx context.Context) (bool, error) {
					n, err := releaseScript.Run(ctx, l.client, []string{full}, token).Int64()
					return n == 1, err
				})
			go le.hold()
			return le.release, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, full, ctx.Err())
		case <-ticker.C:
		}
	}
}

// ownedOp runs a script that only touches the key while our token is stored.
// It reports whether the key was still ours.
type ownedOp func(ctx context.Context) (bool, error)

const opTimeout = 2 * time.Second

// lease keeps a held Redis lock alive until it is released, so holders that
// outlive the TTL (slow AI calls during planning) keep exclusive access.
type lease struct {
	key     string
	every   time.Duration
	extend  ownedOp
	drop    ownedOp
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newLease(key string, every time.Duration, extend, drop ownedOp) *lease {
	return &lease{
		key:     key,
		every:   max(every, 10*time.Millisecond),
		extend:  extend,
		drop:    drop,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (le *lease) hold() {
	defer close(le.stopped)
	ticker := time.NewTicker(le.every)
	defer ticker.Stop()
	for {
		select {
		case <-le.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			owned, err := le.extend(ctx)
			cancel()
			switch {
			case err != nil:
				// retried on the next tick; the key stays valid until its TTL
				logger.Log.Warn("Lock renewal failed", zap.String("key", le.key), zap.Error(err))
			case !owned:
				logger.Log.Warn("Lock lost before release", zap.String("key", le.key))
				return
			}
		}
	}
}

// release stops renewal and deletes the key. It runs on a fresh context
// because the request context may already be cancelled.
func (le *lease) release() {
	le.once.Do(func() {
		close(le.stop)
		<-le.stopped

		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		owned, err := le.drop(ctx)
		switch {
		case err != nil:
			logger.Log.Warn("Lock release failed", zap.String("key", le.key), zap.Error(err))
		case !owned:
			logger.Log.Warn("Lock already expired at release", zap.String("key", le.key))
		}
	})
}

// LocalLocker hands out one channel-backed mutex per key.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
