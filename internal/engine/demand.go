package engine

import (
	"fmt"
	"time"

	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

// DemandAnalyzer flags forecasted demand running well above the historical
// average. Single tier: there is no critical bound for demand spikes.
type DemandAnalyzer struct{}

func (DemandAnalyzer) Category() model.Category {
	return model.CategoryDemand
}

func (DemandAnalyzer) Analyze(ev model.Event, rules config.RulesConfig, now time.Time) ([]model.Alert, error) {
	forecasted := ev.Num("forecasted_demand")
	historical := ev.Num("historical_average")

	r := ratio(forecasted, historical)
	if r < rules.Thresholds.DemandSpike {
		return nil, nil
	}

	return []model.Alert{{
		AlertID:          "DEMAND-SPIKE-" + ev.EventID,
		EventID:          ev.EventID,
		Type:             model.TypeDemandSpike,
		Priority:         model.PriorityHigh,
		Title:            "Significant Demand Increase Detected",
		Description:      fmt.Sprintf("Forecasted demand %.1f%% above historical average", (r-1)*100),
		Category:         ev.Str("material_category", "Multiple"),
		CurrentValue:     forecasted,
		ThresholdValue:   historical * rules.Thresholds.DemandSpike,
		ImpactAssessment: "Inventory shortfall risk. Additional procurement may be required.",
		RecommendedActions: []string{
			"Review current inventory levels against increased demand",
			"Accelerate planned procurement orders",
			"Contact suppliers for capacity availability",
			"Assess production capacity constraints",
		},
		AffectedOrders:      ev.Strings("related_orders"),
		EstimatedCostImpact: ev.NumOr("additional_cost", rules.CostImpact.DemandSpike),
		UrgencyDeadline:     now.Add(rules.LeadTimes.DemandSpike),
		ResponsibleTeam:     "Demand Planning Team",
		CreatedAt:           now,
		DeliveryStatus:      model.DeliveryPending,
	}}, nil
}
