package cache

import (
	"context"
	"errors"
	"strings"

	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

// Cache is the volatile fast-lookup copy of recent state, used by health
// and status reads. It is never authoritative: every value here also
// lives in the durable store.
type Cache interface {
	SetEvent(ctx context.Context, ev model.Event) error
	GetEvent(ctx context.Context, eventID string) (model.Event, bool, error)
	SetMetrics(ctx context.Context, snapshot model.MetricsSnapshot) error
	GetMetrics(ctx context.Context) (model.MetricsSnapshot, bool, error)
	Close() error
}

const (
	eventKeyPrefix = "event:"
	metricsKey     = "supplywatch:metrics"
)

func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "memory":
		return NewMemory(cfg.EventTTL, cfg.MetricsTTL), nil
	case "redis":
		return NewRedis(ctx, cfg)
	default:
		return nil, errors.New("unsupported cache driver")
	}
}
