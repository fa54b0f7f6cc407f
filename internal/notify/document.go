package notify

import (
	"fmt"
	"strings"

	"supplywatch/internal/model"
)

// Document is the structured notification card handed to the Notifier.
// The notifier treats it as opaque; only the builder here knows its shape.
type Document struct {
	Type    string   `json:"type"`
	Version string   `json:"version"`
	Body    []Block  `json:"body"`
	Actions []Action `json:"actions,omitempty"`
}

type Block struct {
	Type    string  `json:"type"`
	Style   string  `json:"style,omitempty"`
	Text    string  `json:"text,omitempty"`
	Weight  string  `json:"weight,omitempty"`
	Size    string  `json:"size,omitempty"`
	Color   string  `json:"color,omitempty"`
	Wrap    bool    `json:"wrap,omitempty"`
	Spacing string  `json:"spacing,omitempty"`
	Items   []Block `json:"items,omitempty"`
	Facts   []Fact  `json:"facts,omitempty"`
}

type Fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type Action struct {
	Type  string         `json:"type"`
	Title string         `json:"title"`
	URL   string         `json:"url,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

func priorityStyle(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "attention"
	case model.PriorityHigh:
		return "warning"
	case model.PriorityMedium:
		return "accent"
	case model.PriorityLow:
		return "good"
	}
	return "default"
}

// BuildAlertCard renders an alert into a priority-styled card: headline
// container, fact list, impact narrative, recommended actions, and for
// critical/high alerts an interactive view/acknowledge pair.
func BuildAlertCard(alert model.Alert, dashboardURL string) Document {
	doc := Document{
		Type:    "AdaptiveCard",
		Version: "1.3",
		Body: []Block{
			{
				Type:  "Container",
				Style: priorityStyle(alert.Priority),
				Items: []Block{
					{Type: "TextBlock", Text: alert.Title, Weight: "bolder", Size: "large"},
					{Type: "TextBlock", Text: alert.Description, Wrap: true, Spacing: "medium"},
				},
			},
			{
				Type: "FactSet",
				Facts: []Fact{
					{Title: "Material Category", Value: alert.Category},
					{Title: "Current Value", Value: fmt.Sprintf("%.2f", alert.CurrentValue)},
					{Title: "Threshold", Value: fmt.Sprintf("%.2f", alert.ThresholdValue)},
					{Title: "Cost Impact", Value: fmt.Sprintf("$%.2f", alert.EstimatedCostImpact)},
					{Title: "Deadline", Value: alert.UrgencyDeadline.UTC().Format("2006-01-02 15:04")},
					{Title: "Responsible Team", Value: alert.ResponsibleTeam},
				},
			},
			{Type: "TextBlock", Text: "Impact Assessment:", Weight: "bolder", Spacing: "medium"},
			{Type: "TextBlock", Text: alert.ImpactAssessment, Wrap: true, Color: "warning"},
		},
	}

	if len(alert.RecommendedActions) > 0 {
		var sb strings.Builder
		for i, action := range alert.RecommendedActions {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString("- ")
			sb.WriteString(action)
		}
		doc.Body = append(doc.Body,
			Block{Type: "TextBlock", Text: "Recommended Actions:", Weight: "bolder", Spacing: "medium"},
			Block{Type: "TextBlock", Text: sb.String(), Wrap: true},
		)
	}

	if alert.Priority == model.PriorityCritical || alert.Priority == model.PriorityHigh {
		doc.Actions = []Action{
			{
				Type:  "Action.OpenUrl",
				Title: "View Details",
				URL:   fmt.Sprintf("%s/alert/%s", strings.TrimRight(dashboardURL, "/"), alert.AlertID),
			},
			{
				Type:  "Action.Submit",
				Title: "Acknowledge Alert",
				Data:  map[string]any{"action": "acknowledge", "alert_id": alert.AlertID},
			},
		}
	}
	return doc
}

// BuildEscalationCard renders the short executive follow-up sent for
// critical alerts after the primary notification succeeded.
func BuildEscalationCard(alert model.Alert) Document {
	return Document{
		Type:    "AdaptiveCard",
		Version: "1.3",
		Body: []Block{
			{
				Type:   "TextBlock",
				Text:   fmt.Sprintf("CRITICAL ESCALATION: %s", alert.Title),
				Weight: "bolder",
				Size:   "large",
				Color:  "attention",
			},
			{
				Type: "TextBlock",
				Text: fmt.Sprintf("Alert %s requires immediate attention. Estimated cost impact: $%.2f",
					alert.AlertID, alert.EstimatedCostImpact),
				Wrap: true,
			},
		},
	}
}
