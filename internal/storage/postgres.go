package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"supplywatch/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/supplywatch?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func newPostgresWithDB(db *sql.DB) Store {
	return &postgresStore{baseStore{db: db}}
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			source_system TEXT NOT NULL,
			payload_json JSONB NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
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
			current_value DOUBLE PRECISION NOT NULL,
			threshold_value DOUBLE PRECISION NOT NULL,
			impact_assessment TEXT NOT NULL,
			recommended_json JSONB NOT NULL,
			affected_json JSONB NOT NULL,
			estimated_cost_impact DOUBLE PRECISION NOT NULL,
			urgency_deadline TIMESTAMPTZ NOT NULL,
			responsible_team TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			delivery_status TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_event ON alerts(event_id)`,
		`CREATE TABLE IF NOT EXISTS metrics_snapshot (
			id INTEGER PRIMARY KEY,
			snapshot_json JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *postgresStore) UpsertEvent(ctx context.Context, ev model.Event) (bool, error) {
	if s.db == nil {
		return false, nil
	}
	now := nowUTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, category, ts, source_system, payload_json, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (event_id) DO NOTHING`,
		ev.EventID, string(ev.Category), ev.Timestamp.UTC(), ev.SourceSystem,
		encodeJSON(ev.Payload), string(ev.Status), now,
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
	// Redelivery: refresh the mutable attributes, keep the identity row.
	_, err = s.db.ExecContext(ctx,
		`UPDATE events SET ts = $1, source_system = $2, payload_json = $3, updated_at = $4 WHERE event_id = $5`,
		ev.Timestamp.UTC(), ev.SourceSystem, encodeJSON(ev.Payload), now, ev.EventID,
	)
	return false, err
}

func (s *postgresStore) UpdateEventStatus(ctx context.Context, eventID string, status model.EventStatus) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE events SET status = $1, updated_at = $2 WHERE event_id = $3`,
		string(status), nowUTC(), eventID,
	)
	return err
}

func (s *postgresStore) GetEvent(ctx context.Context, eventID string) (model.Event, error) {
	if s.db == nil {
		return model.Event{}, ErrNotFound
	}
	var (
		ev       model.Event
		category string
		status   string
		payload  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT event_id, category, ts, source_system, payload_json, status FROM events WHERE event_id = $1`,
		eventID,
	).Scan(&ev.EventID, &category, &ev.Timestamp, &ev.SourceSystem, &payload, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	ev.Category = model.Category(category)
	ev.Status = model.EventStatus(status)
	ev.Payload = decodePayload(payload)
	return ev, nil
}

func (s *postgresStore) RecordAlert(ctx context.Context, alert model.Alert) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (alert_id, event_id, alert_type, priority, title, description, category,
			current_value, threshold_value, impact_assessment, recommended_json, affected_json,
			estimated_cost_impact, urgency_deadline, responsible_team, created_at, delivery_status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (alert_id) DO UPDATE SET delivery_status = EXCLUDED.delivery_status, updated_at = EXCLUDED.updated_at`,
		alert.AlertID, alert.EventID, string(alert.Type), string(alert.Priority),
		alert.Title, alert.Description, alert.Category,
		alert.CurrentValue, alert.ThresholdValue, alert.ImpactAssessment,
		encodeJSON(alert.RecommendedActions), encodeJSON(alert.AffectedOrders),
		alert.EstimatedCostImpact, alert.UrgencyDeadline.UTC(), alert.ResponsibleTeam,
		alert.CreatedAt.UTC(), string(alert.DeliveryStatus), nowUTC(),
	)
	return err
}

func (s *postgresStore) FlushMetrics(ctx context.Context, snapshot model.MetricsSnapshot) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metrics_snapshot (id, snapshot_json, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET snapshot_json = EXCLUDED.snapshot_json, updated_at = EXCLUDED.updated_at`,
		encodeJSON(snapshot), nowUTC(),
	)
	return err
}
