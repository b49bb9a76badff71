package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WebhookConfig holds webhook configuration.
type WebhookConfig struct {
	URL     string            `yaml:"url" json:"url" env:"ALERT_WEBHOOK_URL"`
	Headers map[string]string `yaml:"headers" json:"headers"`
	// Slack switches the payload to Slack's incoming-webhook shape.
	Slack bool `yaml:"slack" json:"slack" env:"ALERT_WEBHOOK_SLACK"`
}

// WebhookNotifier posts messages as JSON to a URL.
type WebhookNotifier struct {
	config WebhookConfig
	http   *http.Client
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		config: cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookNotifier) Channel() Channel {
	if w.config.Slack {
		return ChannelSlack
	}
	return ChannelWebhook
}

// Send posts msg to the webhook URL.
func (w *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	var payload any = msg
	if w.config.Slack {
		text := "*" + msg.Title + "*\n" + msg.Body
		if msg.URL != "" {
			text += "\n" + msg.URL
		}
		payload = map[string]string{"text": strings.TrimSpace(text)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
