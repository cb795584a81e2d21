package sink

import "context"

// DeliverFunc is called for each alert.
type DeliverFunc func(ctx context.Context, a Alert) error

// Callback delivers alerts via an in-process function call — the local path
// for embedding the monitor in another binary, and the natural test double.
type Callback struct {
	onAlert DeliverFunc
}

// NewCallback creates a Callback sink. A nil handler drops alerts.
func NewCallback(onAlert DeliverFunc) *Callback {
	return &Callback{onAlert: onAlert}
}

func (c *Callback) Deliver(ctx context.Context, a Alert) error {
	if c.onAlert != nil {
		return c.onAlert(ctx, a)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
