package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"supplywatch/internal/model"
)

const memoryEventLimit = 10000

// memoryCache keeps the same TTL contract as the redis cache inside the
// process, for single-instance and test deployments.
type memoryCache struct {
	events  *expirable.LRU[string, model.Event]
	metrics *expirable.LRU[string, model.MetricsSnapshot]
}

func NewMemory(eventTTL, metricsTTL time.Duration) Cache {
	return &memoryCache{
		events:  expirable.NewLRU[string, model.Event](memoryEventLimit, nil, eventTTL),
		metrics: expirable.NewLRU[string, model.MetricsSnapshot](1, nil, metricsTTL),
	}
}

func (c *memoryCache) SetEvent(_ context.Context, ev model.Event) error {
	c.events.Add(ev.EventID, ev)
	return nil
}

func (c *memoryCache) GetEvent(_ context.Context, eventID string) (model.Event, bool, error) {
	ev, ok := c.events.Get(eventID)
	return ev, ok, nil
}

func (c *memoryCache) SetMetrics(_ context.Context, snapshot model.MetricsSnapshot) error {
	c.metrics.Add(metricsKey, snapshot)
	return nil
}

func (c *memoryCache) GetMetrics(_ context.Context) (model.MetricsSnapshot, bool, error) {
	snapshot, ok := c.metrics.Get(metricsKey)
	return snapshot, ok, nil
}

func (c *memoryCache) Close() error {
	return nil
}
