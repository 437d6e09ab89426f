package redis

import (
	"context"
	"fmt"

	"github.com/fitness360/notification-svc/internal/adapters/database/redis/preferences"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	Preferences *preferences.Storage

	rdb *redis.Client
}

type Options struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func New(ctx context.Context, opts Options, preferencesTTL int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping preferences cache: %w", err)
	}

	return &Client{
		Preferences: preferences.NewStorage(rdb, preferences.TTL(preferencesTTL)),
		rdb:         rdb,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
