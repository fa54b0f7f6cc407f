package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"supplywatch/internal/model"
	"supplywatch/internal/route"
)

// Dispatcher builds notification cards and drives the send/escalate
// sequence. A failed send is captured in the outcome and never aborts the
// caller; escalation only runs after the primary send succeeded.
type Dispatcher struct {
	notifier     Notifier
	dashboardURL string
	logger       *slog.Logger
}

func NewDispatcher(notifier Notifier, dashboardURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier:     notifier,
		dashboardURL: dashboardURL,
		logger:       logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, alert model.Alert) model.DeliveryOutcome {
	channel := route.SelectChannel(alert)
	outcome := model.DeliveryOutcome{
		AlertID: alert.AlertID,
		Channel: channel,
		SentAt:  time.Now().UTC(),
	}
	if d.notifier == nil {
		outcome.Status = model.DeliveryFailed
		outcome.Reason = "notifications disabled"
		return outcome
	}

	card := BuildAlertCard(alert, d.dashboardURL)
	if err := d.notifier.Send(ctx, card, channel); err != nil {
		outcome.Status = model.DeliveryFailed
		outcome.Reason = err.Error()
		if d.logger != nil {
			d.logger.Error("notification send failed", "alert_id", alert.AlertID, "channel", channel, "err", err)
		}
		return outcome
	}
	outcome.Status = model.DeliverySent
	if d.logger != nil {
		d.logger.Info("notification sent", "alert_id", alert.AlertID, "channel", channel)
	}

	if route.NeedsEscalation(alert) {
		if err := d.notifier.Send(ctx, BuildEscalationCard(alert), model.ChannelExecutive); err != nil {
			if d.logger != nil {
				d.logger.Warn("escalation send failed", "alert_id", alert.AlertID, "err", err)
			}
		} else {
			outcome.Escalated = true
		}
	}
	return outcome
}

// ForecastSummary carries the figures for the periodic forecast digest.
type ForecastSummary struct {
	TotalDemand      float64
	CapacityLimit    float64
	DemandTrend      string
	Recommendations  []string
	CriticalOrders   []string
	CostOptimization float64
}

// SendForecastSummary wraps the digest in an info-priority forecast_update
// alert and dispatches it like any other notification.
func (d *Dispatcher) SendForecastSummary(ctx context.Context, summary ForecastSummary) model.DeliveryOutcome {
	now := time.Now().UTC()
	trend := summary.DemandTrend
	if trend == "" {
		trend = "stable"
	}
	alert := model.Alert{
		AlertID:             uuid.NewString(),
		Type:                model.TypeForecastUpdate,
		Priority:            model.PriorityInfo,
		Title:               "Daily Supply Chain Forecast",
		Description:         "Automated daily forecast update with key metrics and recommendations",
		Category:            "All Categories",
		CurrentValue:        summary.TotalDemand,
		ThresholdValue:      summary.CapacityLimit,
		ImpactAssessment:    "Forecasted demand: " + trend,
		RecommendedActions:  summary.Recommendations,
		AffectedOrders:      summary.CriticalOrders,
		EstimatedCostImpact: summary.CostOptimization,
		UrgencyDeadline:     now.Add(24 * time.Hour),
		ResponsibleTeam:     "Supply Chain Team",
		CreatedAt:           now,
		DeliveryStatus:      model.DeliveryPending,
	}
	return d.Dispatch(ctx, alert)
}
