// Package redis connects the portal to its optional Redis instance, used
// for the distributed intake rate limit window.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fiuportal/internal/platform/config"
)

const connectProbeTimeout = 5 * time.Second

// Client wraps the go-redis client so platform callers get a single
// connect-and-probe entry point.
type Client struct {
	*redis.Client
}

// New dials Redis from the configuration. An empty URL returns a nil
// client without error; callers fall back to the in-memory rate limit
// store.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := &Client{Client: redis.NewClient(opts)}

	ctx, cancel := context.WithTimeout(context.Background(), connectProbeTimeout)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return client, nil
}

// Health probes the connection.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
