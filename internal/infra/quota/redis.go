package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

const ttl = 48 * time.Hour

// RedisCounter keeps one counter per channel per calendar day.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func Key(channel entity.Channel, day time.Time) string {
	return fmt.Sprintf("outreach:quota:%s:%s", channel, day.Format("2006-01-02"))
}

func (c *RedisCounter) Count(ctx context.Context, channel entity.Channel, day time.Time) (int, error) {
	n, err := c.client.Get(ctx, Key(channel, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read quota: %w", err)
	}
	return n, nil
}

func (c *RedisCounter) Incr(ctx context.Context, channel entity.Channel, day time.Time) error {
	key := Key(channel, day)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment quota: %w", err)
	}
	return nil
}
