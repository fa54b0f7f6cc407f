package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

type redisCache struct {
	client     *redis.Client
	eventTTL   time.Duration
	metricsTTL time.Duration
}

func NewRedis(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return &redisCache{
		client:     client,
		eventTTL:   cfg.EventTTL,
		metricsTTL: cfg.MetricsTTL,
	}, nil
}

func (c *redisCache) SetEvent(ctx context.Context, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, eventKeyPrefix+ev.EventID, data, c.eventTTL).Err()
}

func (c *redisCache) GetEvent(ctx context.Context, eventID string) (model.Event, bool, error) {
	data, err := c.client.Get(ctx, eventKeyPrefix+eventID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Event{}, false, nil
	}
	if err != nil {
		return model.Event{}, false, err
	}
	var ev model.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return model.Event{}, false, err
	}
	return ev, true, nil
}

func (c *redisCache) SetMetrics(ctx context.Context, snapshot model.MetricsSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, metricsKey, data, c.metricsTTL).Err()
}

func (c *redisCache) GetMetrics(ctx context.Context) (model.MetricsSnapshot, bool, error) {
	data, err := c.client.Get(ctx, metricsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.MetricsSnapshot{}, false, nil
	}
	if err != nil {
		return model.MetricsSnapshot{}, false, err
	}
	var snapshot model.MetricsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.MetricsSnapshot{}, false, err
	}
	return snapshot, true, nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
