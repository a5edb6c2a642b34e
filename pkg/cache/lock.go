package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tripmate/pkg/logger"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrLockNotConfigured = errors.New("lock client not configured")
	ErrLockTimeout       = errors.New("timed out waiting for lock")
)

// Locker is a single-holder lock over SETNX. The token guards release so
// that an expired holder cannot delete a successor's lock.
type Locker struct {
	client       *redis.Client
	script       *redis.Script
	ttl          time.Duration
	retryBackoff time.Duration
	logger       *logger.Logger
}

func NewLocker(client *redis.Client, ttl time.Duration, log *logger.Logger) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client:       client,
		script:       redis.NewScript(lockReleaseScript),
		ttl:          ttl,
		retryBackoff: 25 * time.Millisecond,
		logger:       log,
	}
}

func (l *Locker) TryLock(ctx context.Context, key string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrLockNotConfigured
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if l.ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// Acquire blocks until the lock is held or ctx is done. The returned func
// releases it; a failed release is logged and the key expires after the ttl.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	for {
		token, ok, err := l.TryLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := l.Release(releaseCtx, key, token); err != nil {
					l.logger.WithError(err).WithFields(map[string]interface{}{
						"lock_key": key,
						"ttl":      l.ttl.String(),
					}).Warn("Failed to release lock")
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
		case <-time.After(l.retryBackoff):
		}
	}
}
