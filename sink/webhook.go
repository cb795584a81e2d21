package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Webhook POSTs alerts as JSON to a fixed URL. Delivery is deliberately
// at-most-once: a flapping consumer must not cause alert storms, so failures
// are reported to the caller and never retried here.
type Webhook struct {
	url    string
	token  string
	client *http.Client
	logger *slog.Logger
}

// WebhookOption configures a Webhook sink.
type WebhookOption func(*Webhook)

// WithToken sets a bearer token sent with every delivery.
func WithToken(token string) WebhookOption {
	return func(w *Webhook) { w.token = token }
}

// WithTimeout overrides the per-delivery timeout. Default: 10s.
func WithTimeout(d time.Duration) WebhookOption {
	return func(w *Webhook) { w.client.Timeout = d }
}

// WithWebhookLogger sets a custom logger.
func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(w *Webhook) { w.logger = l }
}

// NewWebhook creates a Webhook sink targeting the given URL.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Deliver POSTs the alert. Any status outside 2xx is a delivery failure.
func (w *Webhook) Deliver(ctx context.Context, a Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Small read so error logs show what the consumer said.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: status %d: %s", resp.StatusCode, snippet)
	}

	w.logger.Info("webhook: alert delivered",
		"product", a.ProductName,
		"sku", a.ProductSKU,
		"source", a.Source)
	return nil
}

// Close releases the sink's connection resources.
func (w *Webhook) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
