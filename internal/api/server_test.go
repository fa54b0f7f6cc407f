package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supplywatch/internal/alerts"
	"supplywatch/internal/cache"
	"supplywatch/internal/metrics"
	"supplywatch/internal/model"
)

type failingCache struct {
	cache.Cache
}

func (failingCache) GetMetrics(context.Context) (model.MetricsSnapshot, bool, error) {
	return model.MetricsSnapshot{}, false, errors.New("redis connection refused")
}

func TestHandleHealthStates(t *testing.T) {
	t.Run("no cache", func(t *testing.T) {
		s := &Server{}
		rec := httptest.NewRecorder()
		s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		var resp healthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "unknown" {
			t.Fatalf("got %q, want unknown", resp.Status)
		}
	})

	t.Run("cache miss", func(t *testing.T) {
		s := &Server{cache: cache.NewMemory(time.Hour, time.Hour)}
		rec := httptest.NewRecorder()
		s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		var resp healthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "unknown" || resp.Message != "no metrics available" {
			t.Fatalf("got %q/%q", resp.Status, resp.Message)
		}
	})

	t.Run("cache error", func(t *testing.T) {
		s := &Server{cache: failingCache{}}
		rec := httptest.NewRecorder()
		s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		var resp healthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "error" || resp.Message == "" {
			t.Fatalf("got %q/%q", resp.Status, resp.Message)
		}
	})

	t.Run("healthy", func(t *testing.T) {
		c := cache.NewMemory(time.Hour, time.Hour)
		snap := model.MetricsSnapshot{EventsProcessed: 42, LastUpdated: time.Now().UTC()}
		if err := c.SetMetrics(context.Background(), snap); err != nil {
			t.Fatalf("set metrics: %v", err)
		}
		s := &Server{cache: c}
		rec := httptest.NewRecorder()
		s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		var resp healthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "healthy" {
			t.Fatalf("got %q, want healthy", resp.Status)
		}
		if resp.Metrics == nil || resp.Metrics.EventsProcessed != 42 {
			t.Fatalf("snapshot missing from response: %+v", resp.Metrics)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		s := &Server{}
		rec := httptest.NewRecorder()
		s.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("got %d, want 405", rec.Code)
		}
	})
}

func TestHandleMetrics(t *testing.T) {
	agg := metrics.NewAggregator()
	agg.EventProcessed()
	s := &Server{metrics: agg}

	rec := httptest.NewRecorder()
	s.handleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	var snap model.MetricsSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.EventsProcessed != 1 {
		t.Fatalf("got %d events, want 1", snap.EventsProcessed)
	}
}

func TestHandleAlerts(t *testing.T) {
	store := alerts.NewStore(10)
	store.Add(model.Alert{AlertID: "a-1", CreatedAt: time.Now().UTC()})
	store.Add(model.Alert{AlertID: "a-2", CreatedAt: time.Now().UTC()})
	s := &Server{alerts: store}

	rec := httptest.NewRecorder()
	s.handleAlerts(rec, httptest.NewRequest(http.MethodGet, "/alerts?limit=1", nil))
	var got []model.Alert
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].AlertID != "a-2" {
		t.Fatalf("unexpected alerts: %+v", got)
	}

	rec = httptest.NewRecorder()
	s.handleAlerts(rec, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	got = nil
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both alerts, got %d", len(got))
	}
}

func TestHandleAlertsNoStore(t *testing.T) {
	s := &Server{}
	rec := httptest.NewRecorder()
	s.handleAlerts(rec, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	var got []model.Alert
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}
