package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pix-withdraw-go/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SweepKey guards the scheduled withdraw sweep across processes.
const SweepKey = "withdraw:sweep"

var ErrLockHeld = errors.New("lock is held by another process")

// Locker hands out exclusive, expiring leases on a key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
	Close() error
}

type Lease interface {
	Release(ctx context.Context) error
}

// releaseScript deletes the key only while it still holds our token, so an
// expired lease never removes a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(ctx context.Context, cfg models.RedisConfig) (*RedisLocker, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis locker requires an address")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to reach redis at %s: %w", cfg.Addr, err)
	}

	zap.L().Info("Redis sweep lock enabled", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &RedisLocker{client: client}, nil
}

func NewRedisLockerFromClient(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrLockHeld)
	}
	return &redisLease{client: l.client, key: key, token: token}, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
}

func (l *redisLease) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if deleted == 0 {
		zap.L().Warn("Lock expired before release", zap.String("key", l.key))
	}
	return nil
}

// NoopLocker always grants the lease. Used when Redis is not configured and
// a single settlement process is expected.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string, time.Duration) (Lease, error) {
	return noopLease{}, nil
}

func (NoopLocker) Close() error { return nil }

type noopLease struct{}

func (noopLease) Release(context.Context) error { return nil }
