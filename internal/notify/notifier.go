package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

// Notifier delivers one card to one channel. Implementations own the
// transport; callers only see success or an error.
type Notifier interface {
	Send(ctx context.Context, doc Document, channel model.Channel) error
}

// WebhookNotifier posts cards as JSON to per-channel webhook URLs.
type WebhookNotifier struct {
	webhooks map[model.Channel]string
	client   *http.Client
}

func NewWebhookNotifier(cfg config.NotifyConfig) *WebhookNotifier {
	webhooks := make(map[model.Channel]string, len(cfg.Webhooks))
	for channel, url := range cfg.Webhooks {
		webhooks[model.Channel(channel)] = url
	}
	return &WebhookNotifier{
		webhooks: webhooks,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, doc Document, channel model.Channel) error {
	url, ok := n.webhooks[channel]
	if !ok || url == "" {
		return fmt.Errorf("no webhook configured for channel %q", channel)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook send to %s: %w", channel, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook send to %s: unexpected status %d", channel, resp.StatusCode)
	}
	return nil
}
