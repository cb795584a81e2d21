package alert

import (
	"context"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/restock/dedup"
	"github.com/hazyhaar/restock/sink"
)

// Router receives events from all producers, passes each through the dedup
// gate, and forwards approved alerts to the sink. Producers publish onto a
// buffered ingress channel so their cadence is decoupled from sink latency.
type Router struct {
	gate   *dedup.Engine
	sink   sink.Sink
	logger *slog.Logger
	// sanitize strips markup from chat text before it is forwarded. Chat
	// messages are untrusted input.
	sanitize *bluemonday.Policy
	events   chan Event
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// WithBuffer sets the ingress buffer size. Default: 256.
func WithBuffer(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.events = make(chan Event, n)
		}
	}
}

// NewRouter creates a Router. Call Run to start consuming.
func NewRouter(gate *dedup.Engine, snk sink.Sink, opts ...RouterOption) *Router {
	r := &Router{
		gate:     gate,
		sink:     snk,
		logger:   slog.Default(),
		sanitize: bluemonday.StrictPolicy(),
		events:   make(chan Event, 256),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Publish enqueues an event for routing. Non-blocking: when the buffer is
// full the event is dropped with a warning rather than stalling a producer.
func (r *Router) Publish(ev Event) {
	select {
	case r.events <- ev:
	default:
		r.logger.Warn("router: ingress buffer full, event dropped",
			"sku", ev.SKU, "source", ev.Source, "event_id", ev.ID)
	}
}

// Run consumes published events until ctx is cancelled.
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.events:
			r.Handle(ctx, ev)
		}
	}
}

// Handle routes one event: gate check, payload construction, delivery.
// Sink failures are logged and swallowed — a down sink must never reach back
// into a producer's loop, and the dedup record stands even when delivery
// fails (suppression is favored over guaranteed delivery).
func (r *Router) Handle(ctx context.Context, ev Event) {
	r.logger.Info("router: alert received",
		"product", ev.Name, "sku", ev.SKU, "source", ev.Source, "event_id", ev.ID)

	if !r.gate.ShouldAlert(ev.SKU) {
		r.logger.Info("router: duplicate alert suppressed",
			"sku", ev.SKU, "source", ev.Source, "event_id", ev.ID)
		return
	}

	if err := r.sink.Deliver(ctx, r.payload(ev)); err != nil {
		r.logger.Error("router: delivery failed",
			"sku", ev.SKU, "source", ev.Source, "event_id", ev.ID, "error", err)
	}
}

// payload builds the normalized outbound alert. Events without a page URL
// (chat events usually) get the canonical store search URL for the SKU.
func (r *Router) payload(ev Event) sink.Alert {
	a := sink.Alert{
		ProductName: ev.Name,
		ProductSKU:  ev.SKU,
		Source:      string(ev.Source),
		Quantity:    ev.Quantity,
		URL:         ev.URL,
	}
	if a.URL == "" {
		a.URL = SearchURL(ev.SKU)
	}
	if ev.Message != "" {
		msg := strings.TrimSpace(r.sanitize.Sanitize(ev.Message))
		a.Message = &msg
	}
	return a
}
