package stock

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/restock/alert"
)

const (
	// minInterval is the floor for the cycle cadence. Polling faster than
	// this gets the source IP blocked by the storefront.
	minInterval = time.Minute

	// stopGrace bounds how long Stop waits for an in-flight cycle.
	stopGrace = 5 * time.Second

	// settleDelay lets outstanding connections close after the prober is
	// released.
	settleDelay = 250 * time.Millisecond
)

// EventSink receives alert events emitted by the poller. Implementations
// must not block; the poller calls it inline within a cycle.
type EventSink func(ctx context.Context, ev alert.Event)

// PollerConfig configures a Poller.
type PollerConfig struct {
	// Interval is the wait between cycles, measured from cycle end.
	// Clamped to a 60s minimum.
	Interval time.Duration
	// ProductDelay is the pause between consecutive products within a
	// cycle, to keep the request rate polite. Default: 2s.
	ProductDelay time.Duration
	// Checker overrides the default HTTP Prober.
	Checker Checker
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (c *PollerConfig) defaults() {
	if c.Interval < minInterval {
		c.Interval = minInterval
	}
	if c.ProductDelay <= 0 {
		c.ProductDelay = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Poller checks every configured product once per cycle and emits an event
// when a product transitions from out of stock to in stock. It owns the
// per-product state map exclusively; Status exposes a copy.
type Poller struct {
	products []Product
	sink     EventSink
	config   PollerConfig

	// ownedProber is non-nil when the Poller created its own Prober and is
	// responsible for releasing it on Stop.
	ownedProber *Prober

	mu      sync.Mutex
	states  map[string]bool
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller creates a Poller. Events go to sink; call Start to begin polling.
func NewPoller(products []Product, sink EventSink, cfg PollerConfig) *Poller {
	cfg.defaults()
	p := &Poller{
		products: products,
		sink:     sink,
		config:   cfg,
		states:   make(map[string]bool),
	}
	if p.config.Checker == nil {
		p.ownedProber = NewProber(ProbeConfig{Logger: cfg.Logger})
		p.config.Checker = p.ownedProber
	}
	return p
}

// Start launches the polling loop. Starting an already-running poller is a
// no-op with a warning. The loop stops when ctx is cancelled or Stop is
// called.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.config.Logger.Warn("poller: already running")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx)
}

// Stop signals cancellation and waits up to a bounded grace period for the
// in-flight cycle to unwind, then releases network resources. Cooperative:
// an in-flight fetch runs to its own timeout before the loop observes the
// stop.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	p.config.Logger.Info("poller: stopping")
	cancel()
	select {
	case <-done:
	case <-time.After(stopGrace):
		p.config.Logger.Warn("poller: cycle did not unwind within grace period")
	}

	if p.ownedProber != nil {
		p.ownedProber.Close()
		time.Sleep(settleDelay)
	}
	p.config.Logger.Info("poller: stopped")
}

// Status returns the last known in-stock state per lower-cased SKU.
// Read-only: the returned map is a copy.
func (p *Poller) Status() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool, len(p.states))
	for sku, inStock := range p.states {
		out[sku] = inStock
	}
	return out
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	p.config.Logger.Info("poller: started",
		"products", len(p.products),
		"interval", p.config.Interval)

	for {
		p.runCycle(ctx)
		// The wait is measured from cycle end: a slow cycle delays the
		// next one, cycles never overlap and are never skipped.
		if !sleepCtx(ctx, p.config.Interval) {
			return
		}
	}
}

// runCycle probes every product in fixed order, updates state, and emits an
// event for each out-of-stock → in-stock transition. A failing probe
// degrades to out of stock inside the Checker and never blocks the other
// products in the cycle. A panic anywhere in the cycle is caught and logged;
// the remaining products wait for the next cycle.
func (p *Poller) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.config.Logger.Error("poller: cycle panicked", "panic", r)
		}
	}()
	for i, product := range p.products {
		if ctx.Err() != nil {
			return
		}
		snap := p.config.Checker.Check(ctx, product)

		key := strings.ToLower(product.SKU)
		p.mu.Lock()
		wasInStock := p.states[key]
		p.states[key] = snap.InStock
		p.mu.Unlock()

		if snap.InStock && !wasInStock {
			p.config.Logger.Info("poller: stock detected",
				"product", snap.Name,
				"sku", snap.SKU,
				"quantity", quantityAttr(snap.Quantity))
			ev := alert.NewEvent(alert.SourcePoller, snap.Name, snap.SKU)
			ev.URL = snap.URL
			ev.Quantity = snap.Quantity
			p.emit(ctx, ev)
		}

		// Politeness pause between products; skipped after the last one.
		if i < len(p.products)-1 {
			if !sleepCtx(ctx, p.config.ProductDelay) {
				return
			}
		}
	}
}

// emit hands the event to the sink. A panicking sink is caught and logged so
// the polling loop survives.
func (p *Poller) emit(ctx context.Context, ev alert.Event) {
	defer func() {
		if r := recover(); r != nil {
			p.config.Logger.Error("poller: event sink panicked",
				"sku", ev.SKU, "panic", r)
		}
	}()
	p.sink(ctx, ev)
}

// sleepCtx waits for d or until ctx is cancelled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
