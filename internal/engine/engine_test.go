package engine

import (
	"testing"
	"time"

	"supplywatch/internal/alerts"
	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

func testRules() config.RulesConfig {
	return config.DefaultConfig().Rules
}

func testEvent(category model.Category, payload map[string]any) model.Event {
	return model.Event{
		EventID:      "ev-001",
		Category:     category,
		Timestamp:    time.Now().UTC(),
		SourceSystem: "erp",
		Payload:      payload,
		Status:       model.EventPending,
	}
}

func newEngineForTest() *Engine {
	return NewEngine(config.DefaultConfig(), nil, alerts.NewStore(100))
}

func TestInventoryCriticalShortage(t *testing.T) {
	now := time.Now().UTC()
	out, err := InventoryAnalyzer{}.Analyze(testEvent(model.CategoryInventory, map[string]any{
		"material_category": "Steel Coils",
		"current_level":     45.0,
		"normal_level":      600.0,
		"reorder_point":     60.0,
	}), testRules(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(out))
	}
	alert := out[0]
	if alert.Priority != model.PriorityCritical {
		t.Fatalf("expected critical priority, got %s", alert.Priority)
	}
	if alert.Type != model.TypeMaterialShortage {
		t.Fatalf("expected material_shortage, got %s", alert.Type)
	}
	if alert.AlertID != "INV-CRIT-ev-001" {
		t.Fatalf("unexpected alert id %q", alert.AlertID)
	}
	if alert.CurrentValue != 45 || alert.ThresholdValue != 60 {
		t.Fatalf("unexpected values: current=%v threshold=%v", alert.CurrentValue, alert.ThresholdValue)
	}
	if got := alert.UrgencyDeadline.Sub(now); got != 24*time.Hour {
		t.Fatalf("expected 24h deadline, got %s", got)
	}
	if alert.EstimatedCostImpact != 50000 {
		t.Fatalf("expected default cost impact 50000, got %v", alert.EstimatedCostImpact)
	}
}

func TestInventoryWarningShortage(t *testing.T) {
	now := time.Now().UTC()
	out, err := InventoryAnalyzer{}.Analyze(testEvent(model.CategoryInventory, map[string]any{
		"current_level": 120.0,
		"normal_level":  600.0,
		"reorder_point": 150.0,
	}), testRules(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(out))
	}
	if out[0].Priority != model.PriorityHigh {
		t.Fatalf("expected high priority, got %s", out[0].Priority)
	}
	if out[0].AlertID != "INV-WARN-ev-001" {
		t.Fatalf("unexpected alert id %q", out[0].AlertID)
	}
	if got := out[0].UrgencyDeadline.Sub(now); got != 72*time.Hour {
		t.Fatalf("expected 3 day deadline, got %s", got)
	}
	if out[0].EstimatedCostImpact != 15000 {
		t.Fatalf("expected default cost impact 15000, got %v", out[0].EstimatedCostImpact)
	}
}

func TestInventoryHealthyNoAlert(t *testing.T) {
	out, err := InventoryAnalyzer{}.Analyze(testEvent(model.CategoryInventory, map[string]any{
		"current_level": 500.0,
		"normal_level":  600.0,
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no alerts, got %d", len(out))
	}
}

func TestInventoryTiersNeverOverlap(t *testing.T) {
	cases := []struct {
		current float64
		want    model.Priority
	}{
		{60, model.PriorityCritical},
		{61, model.PriorityHigh},
		{150, model.PriorityHigh},
		{151, ""},
	}
	for _, tc := range cases {
		out, err := InventoryAnalyzer{}.Analyze(testEvent(model.CategoryInventory, map[string]any{
			"current_level": tc.current,
			"normal_level":  600.0,
		}), testRules(), time.Now().UTC())
		if err != nil {
			t.Fatalf("current=%v: unexpected error: %v", tc.current, err)
		}
		if tc.want == "" {
			if len(out) != 0 {
				t.Fatalf("current=%v: expected no alerts, got %d", tc.current, len(out))
			}
			continue
		}
		if len(out) != 1 {
			t.Fatalf("current=%v: expected exactly one alert, got %d", tc.current, len(out))
		}
		if out[0].Priority != tc.want {
			t.Fatalf("current=%v: expected %s, got %s", tc.current, tc.want, out[0].Priority)
		}
	}
}

func TestInventoryZeroBaselineNoAlert(t *testing.T) {
	out, err := InventoryAnalyzer{}.Analyze(testEvent(model.CategoryInventory, map[string]any{
		"current_level": 45.0,
		"normal_level":  0.0,
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("zero baseline must not error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("zero baseline must degrade to no alert, got %d", len(out))
	}
}

func TestInventoryPayloadCostImpactOverridesDefault(t *testing.T) {
	out, err := InventoryAnalyzer{}.Analyze(testEvent(model.CategoryInventory, map[string]any{
		"current_level":        10.0,
		"normal_level":         600.0,
		"shortage_cost_impact": 77000.0,
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].EstimatedCostImpact != 77000 {
		t.Fatalf("expected payload cost impact 77000, got %+v", out)
	}
}

func TestDemandSpike(t *testing.T) {
	now := time.Now().UTC()
	out, err := DemandAnalyzer{}.Analyze(testEvent(model.CategoryDemand, map[string]any{
		"forecasted_demand":  485.0,
		"historical_average": 300.0,
	}), testRules(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("ratio 1.617 must trigger exactly one alert, got %d", len(out))
	}
	alert := out[0]
	if alert.Type != model.TypeDemandSpike || alert.Priority != model.PriorityHigh {
		t.Fatalf("expected high demand_spike, got %s/%s", alert.Type, alert.Priority)
	}
	if alert.CurrentValue != 485 {
		t.Fatalf("unexpected current value %v", alert.CurrentValue)
	}
	if alert.ThresholdValue != 450 {
		t.Fatalf("expected threshold 300*1.5=450, got %v", alert.ThresholdValue)
	}
	if got := alert.UrgencyDeadline.Sub(now); got != 7*24*time.Hour {
		t.Fatalf("expected 7 day deadline, got %s", got)
	}
}

func TestDemandBelowThresholdNoAlert(t *testing.T) {
	out, err := DemandAnalyzer{}.Analyze(testEvent(model.CategoryDemand, map[string]any{
		"forecasted_demand":  400.0,
		"historical_average": 300.0,
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("ratio 1.33 must not trigger, got %d alerts", len(out))
	}
}

func TestDemandZeroBaselineNoAlert(t *testing.T) {
	out, err := DemandAnalyzer{}.Analyze(testEvent(model.CategoryDemand, map[string]any{
		"forecasted_demand":  485.0,
		"historical_average": 0.0,
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("zero baseline must not error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("zero baseline means ratio zero, got %d alerts", len(out))
	}
}

func TestSupplierDelayTiers(t *testing.T) {
	cases := []struct {
		delay float64
		want  model.Priority
	}{
		{30, model.PriorityMedium},
		{48, model.PriorityHigh},
		{72, model.PriorityHigh},
		{20, ""},
	}
	for _, tc := range cases {
		out, err := SupplierAnalyzer{}.Analyze(testEvent(model.CategorySupplier, map[string]any{
			"supplier_event_type": "delay",
			"delay_hours":         tc.delay,
		}), testRules(), time.Now().UTC())
		if err != nil {
			t.Fatalf("delay=%v: unexpected error: %v", tc.delay, err)
		}
		if tc.want == "" {
			if len(out) != 0 {
				t.Fatalf("delay=%v: expected no alerts, got %d", tc.delay, len(out))
			}
			continue
		}
		if len(out) != 1 {
			t.Fatalf("delay=%v: expected exactly one alert, got %d", tc.delay, len(out))
		}
		if out[0].Priority != tc.want {
			t.Fatalf("delay=%v: expected %s, got %s", tc.delay, tc.want, out[0].Priority)
		}
		if out[0].Type != model.TypeSupplierDelay {
			t.Fatalf("delay=%v: unexpected type %s", tc.delay, out[0].Type)
		}
	}
}

func TestSupplierNonDelayEventNoAlert(t *testing.T) {
	out, err := SupplierAnalyzer{}.Analyze(testEvent(model.CategorySupplier, map[string]any{
		"supplier_event_type": "shipment_confirmed",
		"delay_hours":         72.0,
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("non-delay event must not alert, got %d", len(out))
	}
}

func TestCostVariance(t *testing.T) {
	now := time.Now().UTC()
	out, err := CostAnalyzer{}.Analyze(testEvent(model.CategoryCost, map[string]any{
		"new_cost":      120.0,
		"previous_cost": 100.0,
	}), testRules(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("20%% change must trigger exactly one alert, got %d", len(out))
	}
	if out[0].Priority != model.PriorityMedium || out[0].Type != model.TypeCostVariance {
		t.Fatalf("expected medium cost_variance, got %s/%s", out[0].Priority, out[0].Type)
	}
	if got := out[0].UrgencyDeadline.Sub(now); got != 5*24*time.Hour {
		t.Fatalf("expected 5 day deadline, got %s", got)
	}
}

func TestCostVarianceBelowThresholdNoAlert(t *testing.T) {
	out, err := CostAnalyzer{}.Analyze(testEvent(model.CategoryCost, map[string]any{
		"new_cost":      110.0,
		"previous_cost": 100.0,
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("10%% change must not trigger, got %d alerts", len(out))
	}
}

func TestCostDecreaseAlsoTriggers(t *testing.T) {
	out, err := CostAnalyzer{}.Analyze(testEvent(model.CategoryCost, map[string]any{
		"new_cost":      80.0,
		"previous_cost": 100.0,
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("20%% decrease must trigger, got %d alerts", len(out))
	}
}

func TestCostZeroBaselineNoAlert(t *testing.T) {
	out, err := CostAnalyzer{}.Analyze(testEvent(model.CategoryCost, map[string]any{
		"new_cost":      120.0,
		"previous_cost": 0.0,
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("zero baseline must not error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("zero baseline means ratio zero, got %d alerts", len(out))
	}
}

func TestProductionStaysEmpty(t *testing.T) {
	out, err := ProductionAnalyzer{}.Analyze(testEvent(model.CategoryProduction, map[string]any{
		"schedule_id": "PS-100",
	}), testRules(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("production analyzer must keep the empty-result contract, got %d", len(out))
	}
}

func TestMissingNumericFieldsDegradeToNoAlert(t *testing.T) {
	eng := newEngineForTest()
	for _, category := range []model.Category{
		model.CategoryInventory,
		model.CategoryDemand,
		model.CategorySupplier,
		model.CategoryCost,
	} {
		out, err := eng.Evaluate(testEvent(category, map[string]any{"note": "fields missing"}))
		if err != nil {
			t.Fatalf("%s: missing fields must not error: %v", category, err)
		}
		if len(out) != 0 {
			t.Fatalf("%s: missing fields must yield no alerts, got %d", category, len(out))
		}
	}
}

func TestEngineDispatchesByCategory(t *testing.T) {
	eng := newEngineForTest()
	out, err := eng.Evaluate(testEvent(model.CategoryInventory, map[string]any{
		"current_level": 45.0,
		"normal_level":  600.0,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Type != model.TypeMaterialShortage {
		t.Fatalf("expected one material_shortage alert, got %+v", out)
	}
}

func TestEngineUnmatchedCategoryEmpty(t *testing.T) {
	eng := newEngineForTest()
	out, err := eng.Evaluate(testEvent(model.Category("weather"), map[string]any{"temp": 12.0}))
	if err != nil {
		t.Fatalf("unmatched category must not error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("unmatched category must yield no alerts, got %d", len(out))
	}
}

func TestAlertIDsDeterministicAcrossReprocessing(t *testing.T) {
	eng := newEngineForTest()
	ev := testEvent(model.CategoryInventory, map[string]any{
		"current_level": 45.0,
		"normal_level":  600.0,
	})
	first, err := eng.Evaluate(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := eng.Evaluate(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one alert per run, got %d and %d", len(first), len(second))
	}
	if first[0].AlertID != second[0].AlertID {
		t.Fatalf("reprocessing must keep alert identity: %q vs %q", first[0].AlertID, second[0].AlertID)
	}
}

func TestDeadlineAlwaysAfterCreation(t *testing.T) {
	eng := newEngineForTest()
	events := []model.Event{
		testEvent(model.CategoryInventory, map[string]any{"current_level": 45.0, "normal_level": 600.0}),
		testEvent(model.CategoryDemand, map[string]any{"forecasted_demand": 485.0, "historical_average": 300.0}),
		testEvent(model.CategorySupplier, map[string]any{"supplier_event_type": "delay", "delay_hours": 30.0}),
		testEvent(model.CategoryCost, map[string]any{"new_cost": 120.0, "previous_cost": 100.0}),
	}
	for _, ev := range events {
		out, err := eng.Evaluate(ev)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", ev.Category, err)
		}
		for _, alert := range out {
			if !alert.UrgencyDeadline.After(alert.CreatedAt) {
				t.Fatalf("%s: deadline %s not after created %s", ev.Category, alert.UrgencyDeadline, alert.CreatedAt)
			}
			if alert.CurrentValue < 0 || alert.ThresholdValue < 0 || alert.EstimatedCostImpact < 0 {
				t.Fatalf("%s: negative alert values: %+v", ev.Category, alert)
			}
		}
	}
}
