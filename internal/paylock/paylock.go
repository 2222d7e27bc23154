// Package paylock serialises payment submissions for one rental and month.
package paylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"tenant-portal-backend/internal/logger"
)

// ErrLocked is returned when another submission holds the key.
var ErrLocked = errors.New("payment submission already in progress")

type Lock interface {
	Release(ctx context.Context) error
}

type Locker interface {
	Obtain(ctx context.Context, key string) (Lock, error)
}

// Key names the lock guarding a (rental, month) pair.
func Key(rentalID int32, month string) string {
	return fmt.Sprintf("paylock:rental:%d:%s", rentalID, month)
}

type redisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker returns a Locker shared by every server instance using rdb.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) Locker {
	return &redisLocker{client: redislock.New(rdb), ttl: ttl}
}

func (l *redisLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 3),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		logger.ExternalServiceResult("redis", "obtain lock", err, "key", key)
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return lock, nil
}

type localLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker returns a Locker that only guards the current process.
func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]struct{})}
}

func (l *localLocker) Obtain(_ context.Context, key string) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ErrLocked
	}
	l.held[key] = struct{}{}
	return &localLock{owner: l, key: key}, nil
}

type localLock struct {
	owner *localLocker
	key   string
	once  sync.Once
}

func (k *localLock) Release(context.Context) error {
	k.once.Do(func() {
		k.owner.mu.Lock()
		delete(k.owner.held, k.key)
		k.owner.mu.Unlock()
	})
	return nil
}
