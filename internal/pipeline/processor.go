package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"supplywatch/internal/alerts"
	"supplywatch/internal/cache"
	"supplywatch/internal/config"
	"supplywatch/internal/engine"
	"supplywatch/internal/ingest"
	"supplywatch/internal/metrics"
	"supplywatch/internal/model"
	"supplywatch/internal/normalize"
	"supplywatch/internal/notify"
	"supplywatch/internal/storage"
)

// Processor is the ingestion loop: poll a batch, run every message through
// normalize -> evaluate -> dispatch -> persist sequentially, flush metrics,
// yield, repeat. Per-message failures are counted and contained; only a
// source failure or cancellation ends the loop.
type Processor struct {
	cfg        *config.Manager
	source     ingest.Source
	engine     *engine.Engine
	dispatcher *notify.Dispatcher
	store      storage.Store
	cache      cache.Cache
	metrics    *metrics.Aggregator
	alerts     *alerts.Store
	logger     *slog.Logger
}

func NewProcessor(
	cfg *config.Manager,
	source ingest.Source,
	eng *engine.Engine,
	dispatcher *notify.Dispatcher,
	store storage.Store,
	cacheStore cache.Cache,
	agg *metrics.Aggregator,
	alertsStore *alerts.Store,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		cfg:        cfg,
		source:     source,
		engine:     eng,
		dispatcher: dispatcher,
		store:      store,
		cache:      cacheStore,
		metrics:    agg,
		alerts:     alertsStore,
		logger:     logger,
	}
}

// Run drives polling cycles until the context is cancelled or the source
// fails. The in-flight batch always completes and final metrics are
// flushed before the source is released.
func (p *Processor) Run(ctx context.Context) error {
	if p.logger != nil {
		p.logger.Info("supply chain event processing started")
	}
	defer func() {
		p.flushMetrics(context.Background())
		if err := p.source.Close(); err != nil && p.logger != nil {
			p.logger.Warn("source close failed", "err", err)
		}
	}()

	for {
		if ctx.Err() != nil {
			if p.logger != nil {
				p.logger.Info("processing stopped")
			}
			return nil
		}

		current := p.cfg.Get()
		batch, err := p.source.Poll(ctx, current.Ingest.PollTimeout)
		if err != nil && ctx.Err() == nil {
			// Whatever arrived before the failure still gets processed.
			for _, msg := range batch {
				p.processMessage(ctx, msg, current)
			}
			p.flushMetrics(ctx)
			if p.logger != nil {
				p.logger.Error("streaming source failed", "err", err)
			}
			return err
		}

		for _, msg := range batch {
			p.processMessage(ctx, msg, current)
		}
		p.flushMetrics(ctx)

		if !sleep(ctx, current.Ingest.IdleDelay) {
			if p.logger != nil {
				p.logger.Info("processing stopped")
			}
			return nil
		}
	}
}

func (p *Processor) processMessage(ctx context.Context, msg ingest.Message, cfg *config.Config) {
	ev, err := normalize.Normalize(msg.Topic, msg.Value, time.Now().UTC(), cfg)
	if err != nil {
		p.metrics.ProcessingError()
		if p.logger != nil {
			p.logger.Error("event normalization failed", "topic", msg.Topic, "err", err)
		}
		return
	}

	firstDelivery, storeFailed := p.recordReceipt(ctx, ev)

	alertsOut, analysisErr := p.engine.Evaluate(ev)
	if analysisErr != nil {
		// Analysis failure degrades to zero alerts; the event still completes.
		p.metrics.ProcessingError()
	}

	for _, alert := range alertsOut {
		outcome := p.dispatcher.Dispatch(ctx, alert)
		alert.DeliveryStatus = outcome.Status
		if outcome.Sent() {
			p.metrics.NotificationSent()
		} else {
			p.metrics.ProcessingError()
		}
		if p.alerts != nil {
			p.alerts.MarkDelivery(alert.AlertID, outcome.Status)
		}
		if p.store != nil {
			if err := p.store.RecordAlert(ctx, alert); err != nil {
				storeFailed = true
				p.metrics.ProcessingError()
				if p.logger != nil {
					p.logger.Error("alert persist failed", "alert_id", alert.AlertID, "err", err)
				}
			}
		}
	}
	p.metrics.AlertsGenerated(len(alertsOut))

	status := model.EventCompleted
	if storeFailed {
		status = model.EventFailed
	}
	if p.store != nil {
		if err := p.store.UpdateEventStatus(ctx, ev.EventID, status); err != nil {
			p.metrics.ProcessingError()
			if p.logger != nil {
				p.logger.Error("event status update failed", "event_id", ev.EventID, "err", err)
			}
		}
	}

	// Redelivered events keep their original completion count.
	if firstDelivery && status == model.EventCompleted {
		p.metrics.EventProcessed()
	}
}

// recordReceipt upserts the event into the durable store and refreshes the
// fast cache. It reports whether this identity is being seen for the first
// time and whether a durable write failed.
func (p *Processor) recordReceipt(ctx context.Context, ev model.Event) (firstDelivery bool, storeFailed bool) {
	firstDelivery = true
	if p.store != nil {
		created, err := p.store.UpsertEvent(ctx, ev)
		if err != nil {
			storeFailed = true
			p.metrics.ProcessingError()
			if p.logger != nil {
				p.logger.Error("event persist failed", "event_id", ev.EventID, "err", err)
			}
		} else {
			firstDelivery = created
		}
	} else if p.cache != nil {
		if _, hit, err := p.cache.GetEvent(ctx, ev.EventID); err == nil && hit {
			firstDelivery = false
		}
	}
	if p.cache != nil {
		if err := p.cache.SetEvent(ctx, ev); err != nil && p.logger != nil {
			p.logger.Warn("event cache write failed", "event_id", ev.EventID, "err", err)
		}
	}
	return firstDelivery, storeFailed
}

// flushMetrics overwrites the point-in-time snapshot in both stores.
// Failures here are logged and never fatal.
func (p *Processor) flushMetrics(ctx context.Context) {
	snapshot := p.metrics.Snapshot()
	if p.store != nil {
		if err := p.store.FlushMetrics(ctx, snapshot); err != nil && p.logger != nil {
			p.logger.Warn("metrics flush to store failed", "err", err)
		}
	}
	if p.cache != nil {
		if err := p.cache.SetMetrics(ctx, snapshot); err != nil && p.logger != nil {
			p.logger.Warn("metrics flush to cache failed", "err", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// IsShutdown reports whether an error from Run represents a clean stop
// rather than a source failure.
func IsShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
