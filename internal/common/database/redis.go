// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"chore-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the connection shared by gateway replicas for the
// response cache. Rate limits and usage counters never go through it.
type RedisClient struct {
	Client *redis.Client
	addr   string
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	return &RedisClient{Client: redis.NewClient(redisOptions(cfg)), addr: cfg.Address}
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	pool := cfg.PoolSize
	if pool <= 0 {
		pool = 10
	}
	return &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     pool,
		MinIdleConns: pool / 5,
	}
}

// Ping is used at startup (with retry) and by the readiness probe.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed (%s): %w", c.addr, err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
