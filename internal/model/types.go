package model

import "time"

type Category string

const (
	CategoryInventory  Category = "inventory"
	CategoryDemand     Category = "demand"
	CategorySupplier   Category = "supplier"
	CategoryCost       Category = "cost"
	CategoryProduction Category = "production"
)

type EventStatus string

const (
	EventPending   EventStatus = "pending"
	EventCompleted EventStatus = "completed"
	EventFailed    EventStatus = "failed"
)

type Event struct {
	EventID      string         `json:"event_id"`
	Category     Category       `json:"category"`
	Timestamp    time.Time      `json:"timestamp"`
	SourceSystem string         `json:"source_system"`
	Payload      map[string]any `json:"payload"`
	Status       EventStatus    `json:"status"`
}

// Num reads a numeric payload field, treating anything absent or
// non-numeric as zero so a malformed event degrades to "no alert".
func (e Event) Num(key string) float64 {
	v, ok := e.Payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// NumOr reads a numeric payload field with a fallback default.
func (e Event) NumOr(key string, fallback float64) float64 {
	if _, ok := e.Payload[key]; !ok {
		return fallback
	}
	return e.Num(key)
}

// Str reads a string payload field with a fallback.
func (e Event) Str(key, fallback string) string {
	if v, ok := e.Payload[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// Strings reads a payload field holding a list of strings.
func (e Event) Strings(key string) []string {
	v, ok := e.Payload[key]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

type AlertType string

const (
	TypeMaterialShortage AlertType = "material_shortage"
	TypeSupplierDelay    AlertType = "supplier_delay"
	TypeDemandSpike      AlertType = "demand_spike"
	TypeCostVariance     AlertType = "cost_variance"
	TypeForecastUpdate   AlertType = "forecast_update"
	TypeROIMilestone     AlertType = "roi_milestone"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityInfo     Priority = "info"
)

// Rank orders priorities, highest first. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	case PriorityInfo:
		return 4
	}
	return 5
}

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

type Alert struct {
	AlertID             string         `json:"alert_id"`
	EventID             string         `json:"event_id"`
	Type                AlertType      `json:"type"`
	Priority            Priority       `json:"priority"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Category            string         `json:"category"`
	CurrentValue        float64        `json:"current_value"`
	ThresholdValue      float64        `json:"threshold_value"`
	ImpactAssessment    string         `json:"impact_assessment"`
	RecommendedActions  []string       `json:"recommended_actions"`
	AffectedOrders      []string       `json:"affected_orders"`
	EstimatedCostImpact float64        `json:"estimated_cost_impact"`
	UrgencyDeadline     time.Time      `json:"urgency_deadline"`
	ResponsibleTeam     string         `json:"responsible_team"`
	CreatedAt           time.Time      `json:"created_at"`
	DeliveryStatus      DeliveryStatus `json:"delivery_status"`
}

type Channel string

const (
	ChannelAlerts      Channel = "alerts"
	ChannelProcurement Channel = "procurement"
	ChannelForecasts   Channel = "forecasts"
	ChannelBusiness    Channel = "business"
	ChannelExecutive   Channel = "executive"
)

// DeliveryOutcome records the result of one dispatch attempt, keeping
// the failure reason for audit instead of collapsing it to a bool.
type DeliveryOutcome struct {
	AlertID   string         `json:"alert_id"`
	Channel   Channel        `json:"channel"`
	Status    DeliveryStatus `json:"status"`
	Escalated bool           `json:"escalated"`
	Reason    string         `json:"reason,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}

func (o DeliveryOutcome) Sent() bool {
	return o.Status == DeliverySent
}

type MetricsSnapshot struct {
	EventsProcessed   uint64    `json:"events_processed"`
	AlertsGenerated   uint64    `json:"alerts_generated"`
	NotificationsSent uint64    `json:"notifications_sent"`
	ProcessingErrors  uint64    `json:"processing_errors"`
	StartTime         time.Time `json:"start_time"`
	ProcessingRate    float64   `json:"processing_rate_per_second"`
	LastUpdated       time.Time `json:"last_updated"`
}
