package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisOptions reads REDIS_HOST, REDIS_PORT and REDIS_PASSWORD. The host
// defaults to localhost and the port to 6379.
func RedisOptions() *redis.Options {
	host := strings.TrimSpace(os.Getenv(config.ENV_KEY_REDIS_HOST))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv(config.ENV_KEY_REDIS_PORT))
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv(config.ENV_KEY_REDIS_PASSWORD),
	}
}

// NewRedisClient connects and pings. The client is closed when the ping
// fails.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	opt := RedisOptions()
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis %s failed: %w", opt.Addr, err)
	}
	return client, nil
}
