package route

import (
	"testing"

	"supplywatch/internal/model"
)

func TestSelectChannel(t *testing.T) {
	cases := []struct {
		name      string
		priority  model.Priority
		alertType model.AlertType
		want      model.Channel
	}{
		{"critical shortage", model.PriorityCritical, model.TypeMaterialShortage, model.ChannelAlerts},
		{"critical forecast still alerts", model.PriorityCritical, model.TypeForecastUpdate, model.ChannelAlerts},
		{"roi milestone", model.PriorityMedium, model.TypeROIMilestone, model.ChannelBusiness},
		{"forecast digest", model.PriorityInfo, model.TypeForecastUpdate, model.ChannelForecasts},
		{"high shortage", model.PriorityHigh, model.TypeMaterialShortage, model.ChannelAlerts},
		{"medium cost variance", model.PriorityMedium, model.TypeCostVariance, model.ChannelAlerts},
	}
	for _, tc := range cases {
		alert := model.Alert{Priority: tc.priority, Type: tc.alertType}
		if got := SelectChannel(alert); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestSelectChannelDeterministic(t *testing.T) {
	alert := model.Alert{Priority: model.PriorityHigh, Type: model.TypeDemandSpike}
	first := SelectChannel(alert)
	for i := 0; i < 10; i++ {
		if got := SelectChannel(alert); got != first {
			t.Fatalf("routing flapped: %s then %s", first, got)
		}
	}
}

func TestNeedsEscalation(t *testing.T) {
	if !NeedsEscalation(model.Alert{Priority: model.PriorityCritical}) {
		t.Fatal("critical must escalate")
	}
	for _, p := range []model.Priority{
		model.PriorityHigh,
		model.PriorityMedium,
		model.PriorityLow,
		model.PriorityInfo,
	} {
		if NeedsEscalation(model.Alert{Priority: p}) {
			t.Fatalf("%s must not escalate", p)
		}
	}
}
