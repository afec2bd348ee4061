package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

const defaultPrefix = "surveyengine:"

// Client is the subset of the go-redis client the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

type aggregateCache struct {
	client Client
	prefix string
}

// NewAggregateCache stores aggregates as JSON under prefix. An empty prefix
// uses the default.
func NewAggregateCache(client Client, prefix string) ports.AggregateCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &aggregateCache{client: client, prefix: prefix}
}

func (c *aggregateCache) Get(ctx context.Context, key string) (*domain.Aggregate, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached aggregate: %w", err)
	}

	var agg domain.Aggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		// A corrupt entry is a miss; it is overwritten on the next compute.
		return nil, nil
	}
	return &agg, nil
}

func (c *aggregateCache) Set(ctx context.Context, key string, agg *domain.Aggregate, ttl time.Duration) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to encode aggregate: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache aggregate: %w", err)
	}
	return nil
}

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
