package metrics

import (
	"sync"
	"time"

	"supplywatch/internal/model"
)

// Aggregator owns the process-wide processing counters. The ingestion loop
// is the only writer; everything else reads point-in-time snapshots.
type Aggregator struct {
	mu                sync.RWMutex
	eventsProcessed   uint64
	alertsGenerated   uint64
	notificationsSent uint64
	processingErrors  uint64
	startTime         time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{startTime: time.Now().UTC()}
}

func (a *Aggregator) EventProcessed() {
	a.mu.Lock()
	a.eventsProcessed++
	a.mu.Unlock()
}

func (a *Aggregator) AlertsGenerated(n int) {
	if n <= 0 {
		return
	}
	a.mu.Lock()
	a.alertsGenerated += uint64(n)
	a.mu.Unlock()
}

func (a *Aggregator) NotificationSent() {
	a.mu.Lock()
	a.notificationsSent++
	a.mu.Unlock()
}

func (a *Aggregator) ProcessingError() {
	a.mu.Lock()
	a.processingErrors++
	a.mu.Unlock()
}

// Snapshot derives the processing rate from elapsed runtime. Rate is zero
// until the clock has visibly advanced.
func (a *Aggregator) Snapshot() model.MetricsSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	now := time.Now().UTC()
	rate := 0.0
	if runtime := now.Sub(a.startTime).Seconds(); runtime > 0 {
		rate = float64(a.eventsProcessed) / runtime
	}
	return model.MetricsSnapshot{
		EventsProcessed:   a.eventsProcessed,
		AlertsGenerated:   a.alertsGenerated,
		NotificationsSent: a.notificationsSent,
		ProcessingErrors:  a.processingErrors,
		StartTime:         a.startTime,
		ProcessingRate:    rate,
		LastUpdated:       now,
	}
}
