package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

// Error marks a raw message that could not be parsed as a payload mapping
// at all. Missing individual fields never produce an Error: they fall back
// to documented defaults instead.
type Error struct {
	Topic  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize %s: %s: %v", e.Topic, e.Reason, e.Err)
	}
	return fmt.Sprintf("normalize %s: %s", e.Topic, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Normalize converts one raw streaming message into a canonical Event.
// now is the ingestion time used when the payload has no parseable timestamp.
func Normalize(topic string, raw []byte, now time.Time, cfg *config.Config) (model.Event, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return model.Event{}, &Error{Topic: topic, Reason: "payload is not a mapping", Err: err}
	}
	if payload == nil {
		return model.Event{}, &Error{Topic: topic, Reason: "payload is empty"}
	}

	category, ok := cfg.Ingest.Topics[topic]
	if !ok {
		// Events from unmapped topics still normalize; the engine produces
		// no alerts for categories it has no analyzer for.
		category = topic
	}

	eventID := stringField(payload, "event_id")
	if eventID == "" {
		eventID = fmt.Sprintf("%s_%d_%s", topic, now.UnixNano(), uuid.NewString()[:8])
	}

	ts := now.UTC()
	if rawTS := stringField(payload, "timestamp"); rawTS != "" {
		if parsed, err := ParseTimestamp(rawTS); err == nil {
			ts = parsed.UTC()
		}
	}

	source := stringField(payload, "source")
	if source == "" {
		source = cfg.Ingest.DefaultSource
	}

	return model.Event{
		EventID:      eventID,
		Category:     model.Category(category),
		Timestamp:    ts,
		SourceSystem: source,
		Payload:      payload,
		Status:       model.EventPending,
	}, nil
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z0700",
}

func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if isNumeric(value) {
		if ts, err := parseUnix(value); err == nil {
			return ts, nil
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}

func isNumeric(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return len(value) > 0
}

func parseUnix(value string) (time.Time, error) {
	if len(value) >= 13 {
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(0, ms*int64(time.Millisecond)).UTC(), nil
	}
	sec, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}
