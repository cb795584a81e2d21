package stock

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// desktopUserAgent mimics a regular browser. Storefronts routinely block
// requests with default Go client identification.
const desktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ProbeConfig configures a Prober.
type ProbeConfig struct {
	// Timeout bounds one page fetch. Default: 15s.
	Timeout time.Duration
	// MaxBytes caps the response body size. Default: 4MB.
	MaxBytes int64
	// UserAgent sent with requests. Default: a desktop browser string.
	UserAgent string
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (c *ProbeConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 4 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = desktopUserAgent
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Checker performs one availability check of a product page.
type Checker interface {
	Check(ctx context.Context, p Product) Snapshot
}

// Prober fetches product pages over HTTP and classifies them. It owns one
// reusable client; callers release it with Close.
type Prober struct {
	client *http.Client
	config ProbeConfig
}

// NewProber creates a Prober.
func NewProber(cfg ProbeConfig) *Prober {
	cfg.defaults()
	return &Prober{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Check fetches the product page and classifies availability. It never
// returns an error: every failure path (non-2xx, transport error, unreadable
// body) degrades to an out-of-stock snapshot for this cycle, so one failing
// product cannot block the rest of the cycle.
func (p *Prober) Check(ctx context.Context, product Product) Snapshot {
	snap := Snapshot{SKU: product.SKU, Name: product.Name, URL: product.URL}
	log := p.config.Logger

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, product.URL, nil)
	if err != nil {
		log.Error("probe: build request", "product", product.Name, "error", err)
		return snap
	}
	req.Header.Set("User-Agent", p.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Error("probe: fetch failed", "product", product.Name, "error", err)
		return snap
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("probe: bad status", "product", product.Name, "status", resp.StatusCode)
		return snap
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.config.MaxBytes))
	if err != nil {
		log.Error("probe: read body", "product", product.Name, "error", err)
		return snap
	}

	cls := Classify(string(body))
	snap.InStock = cls.InStock
	snap.Quantity = cls.Quantity

	log.Debug("probe: checked",
		"product", product.Name,
		"in_stock", snap.InStock,
		"quantity", quantityAttr(snap.Quantity))
	return snap
}

// Close releases held network resources.
func (p *Prober) Close() {
	p.client.CloseIdleConnections()
}

func quantityAttr(q *int) any {
	if q == nil {
		return "unknown"
	}
	return *q
}
