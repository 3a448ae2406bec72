package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/leave-calendar-api/pkg/config"
)

// KeyPrefix namespaces every key and channel owned by the service.
const KeyPrefix = "leavecal"

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(Options(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Options maps configuration onto client options.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Key joins parts under the service prefix, e.g. Key("reports", "abc") = "leavecal:reports:abc".
func Key(parts ...string) string {
	key := KeyPrefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}
