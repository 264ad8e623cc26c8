package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medflow/pharmacy-inventory/pkg/config"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease implements Lease with SET NX PX on a shared Redis
type RedisLease struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a Redis client from configuration
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisLease creates a lease whose keys are namespaced by prefix
func NewRedisLease(client *redis.Client, prefix string) *RedisLease {
	return &RedisLease{client: client, prefix: prefix}
}

// Ping checks the Redis connection
func (l *RedisLease) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisLease) Release(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.prefix + key}, token).Int()
	if err != nil {
		return fmt.Errorf("release lease %s: %w", key, err)
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}
