package engine

import (
	"fmt"
	"math"
	"time"

	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

// CostAnalyzer flags significant price moves in either direction: the
// variance ratio is |new - previous| / previous.
type CostAnalyzer struct{}

func (CostAnalyzer) Category() model.Category {
	return model.CategoryCost
}

func (CostAnalyzer) Analyze(ev model.Event, rules config.RulesConfig, now time.Time) ([]model.Alert, error) {
	newCost := ev.Num("new_cost")
	previousCost := ev.Num("previous_cost")

	variance := ratio(math.Abs(newCost-previousCost), previousCost)
	if variance < rules.Thresholds.CostVariance {
		return nil, nil
	}

	return []model.Alert{{
		AlertID:          "COST-VAR-" + ev.EventID,
		EventID:          ev.EventID,
		Type:             model.TypeCostVariance,
		Priority:         model.PriorityMedium,
		Title:            fmt.Sprintf("Significant Cost Variance: %s", ev.Str("material_category", "Material")),
		Description:      fmt.Sprintf("Cost change of %.1f%% detected", variance*100),
		Category:         ev.Str("material_category", "Unknown"),
		CurrentValue:     newCost,
		ThresholdValue:   previousCost * (1 + rules.Thresholds.CostVariance),
		ImpactAssessment: "Budget impact assessment required. Procurement strategy review recommended.",
		RecommendedActions: []string{
			"Review budget impact of cost change",
			"Evaluate alternative suppliers",
			"Assess contract renegotiation options",
			"Update procurement forecasts",
		},
		AffectedOrders:      ev.Strings("affected_orders"),
		EstimatedCostImpact: ev.NumOr("budget_impact", rules.CostImpact.CostVariance),
		UrgencyDeadline:     now.Add(rules.LeadTimes.CostVariance),
		ResponsibleTeam:     "Procurement Team",
		CreatedAt:           now,
		DeliveryStatus:      model.DeliveryPending,
	}}, nil
}
