package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	SetModuleFlags(ctx context.Context, tenantID uuid.UUID, flags []*models.ModuleFlag, ttl time.Duration) error
	GetModuleFlags(ctx context.Context, tenantID uuid.UUID) ([]*models.ModuleFlag, bool, error)
	InvalidateModuleFlags(ctx context.Context, tenantID uuid.UUID) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// SetModuleFlags stores a tenant's flag snapshot. The TTL is the staleness
// bound promised to clients; a snapshot older than that never survives.
func (c *RedisCache) SetModuleFlags(ctx context.Context, tenantID uuid.UUID, flags []*models.ModuleFlag, ttl time.Duration) error {
	data, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ModuleFlagsKey(tenantID), data, ttl).Err()
}

func (c *RedisCache) GetModuleFlags(ctx context.Context, tenantID uuid.UUID) ([]*models.ModuleFlag, bool, error) {
	data, err := c.client.Get(ctx, ModuleFlagsKey(tenantID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var flags []*models.ModuleFlag
	if err := json.Unmarshal(data, &flags); err != nil {
		return nil, false, err
	}
	return flags, true, nil
}

func (c *RedisCache) InvalidateModuleFlags(ctx context.Context, tenantID uuid.UUID) error {
	return c.client.Del(ctx, ModuleFlagsKey(tenantID)).Err()
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
