package alerts

import (
	"fmt"
	"testing"
	"time"

	"supplywatch/internal/model"
)

func TestStoreBounded(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		s.Add(model.Alert{AlertID: fmt.Sprintf("a-%d", i), CreatedAt: time.Now().UTC()})
	}
	got := s.List(0)
	if len(got) != 3 {
		t.Fatalf("store must cap at 3, got %d", len(got))
	}
	if got[0].AlertID != "a-2" || got[2].AlertID != "a-4" {
		t.Fatalf("oldest entries must be evicted first: %+v", got)
	}
}

func TestStoreListLimit(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 5; i++ {
		s.Add(model.Alert{AlertID: fmt.Sprintf("a-%d", i)})
	}
	got := s.List(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if got[0].AlertID != "a-3" || got[1].AlertID != "a-4" {
		t.Fatalf("limit must return the newest alerts: %+v", got)
	}
}

func TestStoreMarkDelivery(t *testing.T) {
	s := NewStore(10)
	s.Add(model.Alert{AlertID: "a-1", DeliveryStatus: model.DeliveryPending})
	s.MarkDelivery("a-1", model.DeliverySent)
	got := s.List(0)
	if got[0].DeliveryStatus != model.DeliverySent {
		t.Fatalf("delivery status not updated: %+v", got[0])
	}
	// Unknown ids are a no-op.
	s.MarkDelivery("missing", model.DeliveryFailed)
}

func TestStoreSince(t *testing.T) {
	s := NewStore(10)
	now := time.Now().UTC()
	s.Add(model.Alert{AlertID: "old", CreatedAt: now.Add(-2 * time.Hour)})
	s.Add(model.Alert{AlertID: "new", CreatedAt: now})
	got := s.Since(now.Add(-time.Hour))
	if len(got) != 1 || got[0].AlertID != "new" {
		t.Fatalf("unexpected since result: %+v", got)
	}
}
