// Package sink defines outbound backends for restock alerts. Implementations
// deliver one normalized alert to an external consumer (webhook, stdout,
// in-process callback).
package sink

import "context"

// Alert is the normalized outbound payload. Field names are the wire
// contract consumed by downstream automation hooks.
type Alert struct {
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	// Source is "discord" or "store_poller".
	Source   string  `json:"source"`
	Quantity *int    `json:"quantity"`
	URL      string  `json:"url"`
	Message  *string `json:"message"`
}

// Sink delivers alerts. Deliver is an at-most-once attempt: callers do not
// retry, and a delivery failure must not affect upstream state.
type Sink interface {
	Deliver(ctx context.Context, a Alert) error
	Close() error
}
