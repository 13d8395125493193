package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/hiking-store/pkg/logger"
)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient builds a pooled client and pings it. Redis is optional for the
// store: on a failed ping the client is still returned together with the error
// so callers can keep it and degrade, since go-redis reconnects on demand.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   -1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return client, err
	}

	logger.Logger.Info().
		Str("redis_addr", cfg.Addr).
		Msg("Connected to Redis")

	return client, nil
}
