package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookNotifier posts trading alerts as JSON to an HTTP endpoint so
// dashboards and alert routers can consume trade events without parsing
// log lines. The payload carries the alert's structured trade fields
// (product, side, size, price, status, P/L) when present.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// webhookPayload is the wire shape of a delivered alert.
type webhookPayload struct {
	Level   string      `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Trade   *TradeEvent `json:"trade,omitempty"`
	SentAt  string      `json:"sent_at"`
}

// NewWebhookNotifier creates a webhook notifier posting to url. A
// timeout of zero uses the default per-request timeout.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(webhookPayload{
		Level:   string(alert.Level),
		Title:   alert.Title,
		Message: alert.Message,
		Trade:   alert.Trade,
		SentAt:  time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}

	log.Printf("[webhook] delivered %q to %s", alert.Title, w.url)
	return nil
}
