package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hazyhaar/restock/alert"
	"github.com/hazyhaar/restock/chat"
	"github.com/hazyhaar/restock/dedup"
	"github.com/hazyhaar/restock/sink"
	"github.com/hazyhaar/restock/stock"
)

// Monitor owns the full alert pipeline: producers (poller, chat listener),
// the dedup gate, the router, and the outbound sink. Producers publish onto
// the router's ingress channel; the router is the only component that talks
// to the sink.
type Monitor struct {
	config  Config
	logger  *slog.Logger
	gate    *dedup.Engine
	snk     sink.Sink
	router  *alert.Router
	checker stock.Checker

	mu         sync.Mutex
	started    bool
	cancel     context.CancelFunc
	routerDone chan struct{}
	poller     *stock.Poller
	listener   *chat.Listener
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithSink overrides the configured sink (embedding, tests).
func WithSink(s sink.Sink) Option {
	return func(m *Monitor) { m.snk = s }
}

// WithChecker overrides the poller's page checker (tests).
func WithChecker(c stock.Checker) Option {
	return func(m *Monitor) { m.checker = c }
}

// New creates a Monitor from a validated Config.
func New(cfg Config, opts ...Option) *Monitor {
	m := &Monitor{
		config: cfg,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}

	m.gate = dedup.New(cfg.Dedup.Window(), dedup.WithLogger(m.logger))

	if m.snk == nil {
		if cfg.Webhook.URL != "" {
			m.snk = sink.NewWebhook(cfg.Webhook.URL,
				sink.WithToken(cfg.Webhook.Token),
				sink.WithWebhookLogger(m.logger))
		} else {
			m.logger.Warn("monitor: no webhook configured, alerts go to stdout")
			m.snk = sink.NewStdout(nil)
		}
	}

	m.router = alert.NewRouter(m.gate, m.snk, alert.WithLogger(m.logger))
	return m
}

// Start launches the router and both producers. A chat listener that cannot
// connect degrades the monitor rather than failing it: the poller keeps
// running and the error is logged. Idempotent with a warning.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		m.logger.Warn("monitor: already started")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.routerDone = make(chan struct{})
	go func() {
		defer close(m.routerDone)
		m.router.Run(runCtx)
	}()

	if m.config.Poller.PollerEnabled() && len(m.config.Poller.Products) > 0 {
		m.poller = stock.NewPoller(m.config.Poller.Products,
			func(_ context.Context, ev alert.Event) { m.router.Publish(ev) },
			stock.PollerConfig{
				Interval: m.config.PollInterval(),
				Checker:  m.checker,
				Logger:   m.logger,
			})
		m.poller.Start(runCtx)
		m.logger.Info("monitor: poller started",
			"products", len(m.config.Poller.Products))
	} else {
		m.logger.Info("monitor: poller disabled or no products configured")
	}

	if m.config.Discord.Token != "" {
		listener := chat.New(chat.Config{
			Token:        m.config.Discord.Token,
			GuildID:      m.config.Discord.GuildID,
			WatchedRoles: m.config.Discord.WatchedRoles,
			Logger:       m.logger,
		}, func(ev alert.Event) { m.router.Publish(ev) })

		if err := listener.Start(runCtx); err != nil {
			m.logger.Error("monitor: chat listener failed, continuing without it",
				"error", err)
		} else {
			m.listener = listener
		}
	} else {
		m.logger.Warn("monitor: discord token not configured, chat listener skipped")
	}

	m.started = true
	m.logger.Info("monitor: running")
	return nil
}

// Stop shuts the pipeline down in reverse order: producers first so nothing
// publishes into a dead router, then the router, then the sink.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	m.logger.Info("monitor: shutting down")

	if m.poller != nil {
		m.poller.Stop()
		m.poller = nil
	}
	if m.listener != nil {
		if err := m.listener.Close(); err != nil {
			m.logger.Error("monitor: chat listener close failed", "error", err)
		}
		m.listener = nil
	}

	m.cancel()
	<-m.routerDone

	if err := m.snk.Close(); err != nil {
		m.logger.Error("monitor: sink close failed", "error", err)
	}

	m.started = false
	m.logger.Info("monitor: shutdown complete")
}

// Report is the operational status snapshot: last known stock per product
// and current suppression state per SKU. Read-only, side-effect-free.
type Report struct {
	Products map[string]bool   `json:"products"`
	Dedup    map[string]string `json:"dedup"`
}

// Status builds a Report.
func (m *Monitor) Status() Report {
	m.mu.Lock()
	poller := m.poller
	m.mu.Unlock()

	report := Report{
		Products: map[string]bool{},
		Dedup:    m.gate.Status(),
	}
	if poller != nil {
		report.Products = poller.Status()
	}
	return report
}

// Gate exposes the dedup engine for the status API's clear operations.
func (m *Monitor) Gate() *dedup.Engine { return m.gate }
