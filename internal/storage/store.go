package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

// Store is the durable record of event and alert lifecycle. All writes are
// upserts keyed by event_id or alert_id so redelivery never duplicates a
// row; UpsertEvent reports whether the identity was seen for the first
// time so the caller can keep its counters idempotent too.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	UpsertEvent(ctx context.Context, ev model.Event) (created bool, err error)
	UpdateEventStatus(ctx context.Context, eventID string, status model.EventStatus) error
	GetEvent(ctx context.Context, eventID string) (model.Event, error)
	RecordAlert(ctx context.Context, alert model.Alert) error
	FlushMetrics(ctx context.Context, snapshot model.MetricsSnapshot) error
}

var ErrNotFound = errors.New("storage: not found")

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func encodeJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

func decodePayload(raw string) map[string]any {
	var payload map[string]any
	_ = json.Unmarshal([]byte(raw), &payload)
	return payload
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
