package route

import "supplywatch/internal/model"

// SelectChannel maps an alert to its destination channel. Pure and
// deterministic: the same alert always routes the same way.
func SelectChannel(alert model.Alert) model.Channel {
	if alert.Priority == model.PriorityCritical {
		return model.ChannelAlerts
	}
	switch alert.Type {
	case model.TypeROIMilestone:
		return model.ChannelBusiness
	case model.TypeForecastUpdate:
		return model.ChannelForecasts
	}
	return model.ChannelAlerts
}

// NeedsEscalation reports whether a secondary escalation message must go to
// the executive channel once the primary notification succeeds.
func NeedsEscalation(alert model.Alert) bool {
	return alert.Priority == model.PriorityCritical
}
