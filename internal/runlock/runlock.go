// Package runlock provides the lock that keeps two seeding runs from sharing a
// database at the same time.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultTTL bounds how long a crashed run can hold the lock.
const DefaultTTL = 5 * time.Minute

// ErrHeld is returned when another run holds the lock.
var ErrHeld = errors.New("lock held by another run")

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLock is a lock held as a Redis key set with SET NX and a TTL.
type RedisLock struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// Option configures a RedisLock.
type Option func(*RedisLock)

// WithTTL sets the expiry of the lock key.
func WithTTL(ttl time.Duration) Option {
	return func(l *RedisLock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the prefix of lock keys.
func WithKeyPrefix(prefix string) Option {
	return func(l *RedisLock) {
		l.keyPrefix = prefix
	}
}

// NewRedisLock returns a lock backed by client.
func NewRedisLock(client *redis.Client, options ...Option) *RedisLock {
	l := &RedisLock{
		client:    client,
		ttl:       DefaultTTL,
		keyPrefix: "lock:",
	}
	for _, o := range options {
		o(l)
	}
	return l
}

// Acquire takes the named lock. The returned function releases it; releasing
// a lock that expired and was taken by someone else leaves theirs alone.
func (l *RedisLock) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	key := l.keyPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire %s: %w", key, ErrHeld)
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}, nil
}

// Noop is a lock that is always free.
type Noop struct{}

// Acquire always succeeds.
func (Noop) Acquire(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
