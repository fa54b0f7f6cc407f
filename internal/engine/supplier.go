package engine

import (
	"fmt"
	"strings"
	"time"

	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

// SupplierAnalyzer flags delivery delays. Unlike the ratio-based rules this
// one compares absolute delay hours: >= the severe bound maps to high
// priority, >= the delay bound to medium.
type SupplierAnalyzer struct{}

func (SupplierAnalyzer) Category() model.Category {
	return model.CategorySupplier
}

func (SupplierAnalyzer) Analyze(ev model.Event, rules config.RulesConfig, now time.Time) ([]model.Alert, error) {
	eventType := ev.Str("supplier_event_type", "")
	delayHours := ev.Num("delay_hours")

	if !strings.Contains(strings.ToLower(eventType), "delay") {
		return nil, nil
	}
	if delayHours < rules.Thresholds.SupplierDelayHours {
		return nil, nil
	}

	priority := model.PriorityMedium
	if delayHours >= rules.Thresholds.SupplierSevereHours {
		priority = model.PriorityHigh
	}

	return []model.Alert{{
		AlertID:          "SUPPLIER-DELAY-" + ev.EventID,
		EventID:          ev.EventID,
		Type:             model.TypeSupplierDelay,
		Priority:         priority,
		Title:            fmt.Sprintf("Supplier Delivery Delay: %s", ev.Str("supplier_name", "Unknown")),
		Description:      fmt.Sprintf("Delivery delayed by %.0f hours for %s", delayHours, ev.Str("material_category", "materials")),
		Category:         ev.Str("material_category", "Unknown"),
		CurrentValue:     delayHours,
		ThresholdValue:   rules.Thresholds.SupplierDelayHours,
		ImpactAssessment: "Production schedule impact possible. Alternative sourcing may be needed.",
		RecommendedActions: []string{
			"Contact supplier for updated delivery timeline",
			"Assess impact on production schedule",
			"Evaluate backup supplier options",
			"Communicate delays to affected stakeholders",
		},
		AffectedOrders:      ev.Strings("affected_orders"),
		EstimatedCostImpact: ev.NumOr("delay_cost_impact", rules.CostImpact.SupplierDelay),
		UrgencyDeadline:     now.Add(rules.LeadTimes.SupplierDelay),
		ResponsibleTeam:     "Supplier Relations Team",
		CreatedAt:           now,
		DeliveryStatus:      model.DeliveryPending,
	}}, nil
}
