// Package dedup suppresses duplicate restock alerts. Two independent
// producers may observe the same restock; every alert passes through one
// Engine before delivery so at most one goes out per SKU per window.
package dedup

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Engine is a time-windowed alert gate. Safe for concurrent use: ShouldAlert
// is an atomic check-and-record under a single mutex — contention is rare
// and short, so nothing finer-grained is needed.
type Engine struct {
	window time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
	// lastAlerts maps lower-cased SKU to the last approved time. Entries
	// older than the window are expired lazily on the next check.
	lastAlerts map[string]time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the time source. Tests use this to step through the
// window without sleeping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine. A window of zero or less disables the gate: every
// request is approved and nothing is recorded.
func New(window time.Duration, opts ...Option) *Engine {
	e := &Engine{
		window:     window,
		logger:     slog.Default(),
		now:        time.Now,
		lastAlerts: make(map[string]time.Time),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ShouldAlert reports whether an alert for this SKU may proceed, recording
// the approval time when it does. Rejections mutate nothing — only approvals
// move the window.
func (e *Engine) ShouldAlert(sku string) bool {
	if e.window <= 0 {
		return true
	}

	key := strings.ToLower(sku)
	now := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if last, ok := e.lastAlerts[key]; ok {
		if elapsed := now.Sub(last); elapsed < e.window {
			e.logger.Debug("dedup: alert suppressed",
				"sku", sku,
				"remaining", e.window-elapsed)
			return false
		}
	}

	e.lastAlerts[key] = now
	e.logger.Debug("dedup: alert allowed", "sku", sku)
	return true
}

// Clear removes one SKU's suppression record.
func (e *Engine) Clear(sku string) {
	e.mu.Lock()
	delete(e.lastAlerts, strings.ToLower(sku))
	e.mu.Unlock()
	e.logger.Debug("dedup: cleared", "sku", sku)
}

// ClearAll removes every suppression record.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	e.lastAlerts = make(map[string]time.Time)
	e.mu.Unlock()
	e.logger.Debug("dedup: cleared all")
}

// Status returns, per tracked SKU, either the remaining suppression time or
// an "expired" marker. Read-only: it never mutates the records.
func (e *Engine) Status() map[string]string {
	now := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	status := make(map[string]string, len(e.lastAlerts))
	for sku, last := range e.lastAlerts {
		remaining := e.window - now.Sub(last)
		if remaining > 0 {
			status[sku] = fmt.Sprintf("blocked for %ds", int(remaining.Seconds()))
		} else {
			status[sku] = "expired"
		}
	}
	return status
}
