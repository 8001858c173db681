package authentication

import (
	"context"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/common/claims"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"
)

const identityKeyPrefix = "orphanage:identity:"

// RedisIdentityCache stores callers as redis hashes that expire after Ttl.
type RedisIdentityCache struct {
	Client *redis.Client
	Ttl    time.Duration
	Logger *log.Logger
}

func NewRedisIdentityCache(addr, password string, ttl time.Duration, logger *log.Logger) *RedisIdentityCache {
	return &RedisIdentityCache{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		Ttl:    ttl,
		Logger: logger,
	}
}

func (c *RedisIdentityCache) Get(ctx context.Context, userId string) (claims.Caller, bool) {
	values, err := c.Client.HGetAll(ctx, identityKeyPrefix+userId).Result()
	if err != nil {
		c.Logger.Warn(ctx, "identity cache unavailable", "err", err)
		return claims.Caller{}, false
	}
	if len(values) == 0 {
		return claims.Caller{}, false
	}

	caller := claims.Caller{}
	if err := mapstructure.Decode(values, &caller); err != nil || caller.UserId != userId {
		return claims.Caller{}, false
	}
	return caller, true
}

func (c *RedisIdentityCache) Set(ctx context.Context, caller claims.Caller) {
	values := map[string]interface{}{}
	if err := mapstructure.Decode(caller, &values); err != nil {
		return
	}

	key := identityKeyPrefix + caller.UserId
	pipe := c.Client.TxPipeline()
	pipe.HSet(ctx, key, values)
	pipe.Expire(ctx, key, c.Ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.Logger.Warn(ctx, "failed to cache identity", "userId", caller.UserId, "err", err)
	}
}

func (c *RedisIdentityCache) Invalidate(ctx context.Context, userId string) {
	if err := c.Client.Del(ctx, identityKeyPrefix+userId).Err(); err != nil {
		c.Logger.Warn(ctx, "failed to invalidate identity", "userId", userId, "err", err)
	}
}

func (c *RedisIdentityCache) Close() error {
	return c.Client.Close()
}
