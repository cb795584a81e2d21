package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/restock/sink"
	"github.com/hazyhaar/restock/stock"
)

// inStockChecker reports every product as available.
type inStockChecker struct{}

func (inStockChecker) Check(_ context.Context, p stock.Product) stock.Snapshot {
	return stock.Snapshot{SKU: p.SKU, Name: p.Name, URL: p.URL, InStock: true}
}

func testConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	cfg.Poller.Products = []stock.Product{
		{SKU: "SKU-1", Name: "One", URL: "https://store.example/one"},
	}
	return cfg
}

func TestMonitor_PollerToSinkPipeline(t *testing.T) {
	// WHAT: A poller-observed restock flows through the router and gate to
	// the sink exactly once, and is recorded for dedup.
	// WHY: End-to-end wiring of the pipeline.
	delivered := make(chan sink.Alert, 4)
	m := New(testConfig(),
		WithChecker(inStockChecker{}),
		WithSink(sink.NewCallback(func(_ context.Context, a sink.Alert) error {
			delivered <- a
			return nil
		})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	select {
	case a := <-delivered:
		if a.ProductSKU != "SKU-1" {
			t.Errorf("sku: got %q", a.ProductSKU)
		}
		if a.Source != "store_poller" {
			t.Errorf("source: got %q", a.Source)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("alert never delivered")
	}

	if m.Gate().ShouldAlert("SKU-1") {
		t.Error("delivered SKU should be suppressed")
	}

	report := m.Status()
	if !report.Products["sku-1"] {
		t.Errorf("status products: %v", report.Products)
	}
	if len(report.Dedup) == 0 {
		t.Error("status dedup: expected a record")
	}
}

func TestMonitor_StartIdempotent(t *testing.T) {
	// WHAT: A second Start is a no-op.
	m := New(testConfig(),
		WithChecker(inStockChecker{}),
		WithSink(sink.NewCallback(nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}
	m.Stop()
	m.Stop() // no-op after stop
}

func TestMonitor_DisabledPollerStillServesStatus(t *testing.T) {
	// WHAT: With the poller disabled the monitor runs (chat-only mode) and
	// Status reports empty products.
	// WHY: Degraded modes keep the rest of the pipeline alive.
	cfg := testConfig()
	disabled := false
	cfg.Poller.Enabled = &disabled

	m := New(cfg, WithSink(sink.NewCallback(nil)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	if got := m.Status(); len(got.Products) != 0 {
		t.Errorf("products: got %v, want empty", got.Products)
	}
}
