package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"supplywatch/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:supplywatch.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			ts TEXT NOT NULL,
			source_system TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_category_ts ON events(category, ts)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			alert_id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			alert_type TEXT NOT NULL,
			priority TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			current_value REAL NOT NULL,
			threshold_value REAL NOT NULL,
			impact_assessment TEXT NOT NULL,
			recommended_json TEXT NOT NULL,
			affected_json TEXT NOT NULL,
			estimated_cost_impact REAL NOT NULL,
			urgency_deadline TEXT NOT NULL,
			responsible_team TEXT NOT NULL,
			created_at TEXT NOT NULL,
			delivery_status TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_event ON alerts(event_id)`,
		`CREATE TABLE IF NOT EXISTS metrics_snapshot (
			id INTEGER PRIMARY KEY,
			snapshot_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) UpsertEvent(ctx context.Context, ev model.Event) (bool, error) {
	if s.db == nil {
		return false, nil
	}
	now := nowUTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, category, ts, source_system, payload_json, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING`,
		ev.EventID, string(ev.Category), ev.Timestamp.UTC().Format(time.RFC3339Nano), ev.SourceSystem,
		encodeJSON(ev.Payload), string(ev.Status), now, now,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE events SET ts = ?, source_system = ?, payload_json = ?, updated_at = ? WHERE event_id = ?`,
		ev.Timestamp.UTC().Format(time.RFC3339Nano), ev.SourceSystem, encodeJSON(ev.Payload), now, ev.EventID,
	)
	return false, err
}

func (s *sqliteStore) UpdateEventStatus(ctx context.Context, eventID string, status model.EventStatus) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE events SET status = ?, updated_at = ? WHERE event_id = ?`,
		string(status), nowUTC().Format(time.RFC3339Nano), eventID,
	)
	return err
}

func (s *sqliteStore) GetEvent(ctx context.Context, eventID string) (model.Event, error) {
	if s.db == nil {
		return model.Event{}, ErrNotFound
	}
	var (
		ev       model.Event
		category string
		status   string
		payload  string
		ts       string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT event_id, category, ts, source_system, payload_json, status FROM events WHERE event_id = ?`,
		eventID,
	).Scan(&ev.EventID, &category, &ts, &ev.SourceSystem, &payload, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		ev.Timestamp = parsed
	}
	ev.Category = model.Category(category)
	ev.Status = model.EventStatus(status)
	ev.Payload = decodePayload(payload)
	return ev, nil
}

func (s *sqliteStore) RecordAlert(ctx context.Context, alert model.Alert) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (alert_id, event_id, alert_type, priority, title, description, category,
			current_value, threshold_value, impact_assessment, recommended_json, affected_json,
			estimated_cost_impact, urgency_deadline, responsible_team, created_at, delivery_status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (alert_id) DO UPDATE SET delivery_status = excluded.delivery_status, updated_at = excluded.updated_at`,
		alert.AlertID, alert.EventID, string(alert.Type), string(alert.Priority),
		alert.Title, alert.Description, alert.Category,
		alert.CurrentValue, alert.ThresholdValue, alert.ImpactAssessment,
		encodeJSON(alert.RecommendedActions), encodeJSON(alert.AffectedOrders),
		alert.EstimatedCostImpact, alert.UrgencyDeadline.UTC().Format(time.RFC3339Nano), alert.ResponsibleTeam,
		alert.CreatedAt.UTC().Format(time.RFC3339Nano), string(alert.DeliveryStatus), nowUTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) FlushMetrics(ctx context.Context, snapshot model.MetricsSnapshot) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metrics_snapshot (id, snapshot_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET snapshot_json = excluded.snapshot_json, updated_at = excluded.updated_at`,
		encodeJSON(snapshot), nowUTC().Format(time.RFC3339Nano),
	)
	return err
}
