package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/restock/sink"
)

func newTestAPI(t *testing.T) (*Monitor, http.Handler) {
	t.Helper()
	m := New(testConfig(), WithSink(sink.NewCallback(nil)))
	return m, Handler(m)
}

func TestAPI_Healthz(t *testing.T) {
	// WHAT: /healthz answers 200.
	_, h := newTestAPI(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d", rec.Code)
	}
}

func TestAPI_StatusReportsDedupWithoutMutating(t *testing.T) {
	// WHAT: /api/status reflects dedup records and repeated reads don't
	// change them.
	// WHY: Introspection must be side-effect-free.
	m, h := newTestAPI(t)
	m.Gate().ShouldAlert("SKU-1")

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d", rec.Code)
		}
		var report Report
		if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := report.Dedup["sku-1"]; !ok {
			t.Errorf("read %d: dedup missing sku-1: %v", i+1, report.Dedup)
		}
	}

	if m.Gate().ShouldAlert("SKU-1") {
		t.Error("status reads must not clear suppression")
	}
}

func TestAPI_ClearSingleSKU(t *testing.T) {
	// WHAT: POST /api/dedup/clear?sku=X clears only that SKU.
	m, h := newTestAPI(t)
	m.Gate().ShouldAlert("a")
	m.Gate().ShouldAlert("b")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dedup/clear?sku=a", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	if !m.Gate().ShouldAlert("a") {
		t.Error("cleared SKU should be approvable")
	}
	if m.Gate().ShouldAlert("b") {
		t.Error("other SKU must stay suppressed")
	}
}

func TestAPI_ClearAll(t *testing.T) {
	// WHAT: POST /api/dedup/clear without sku clears everything.
	m, h := newTestAPI(t)
	m.Gate().ShouldAlert("a")
	m.Gate().ShouldAlert("b")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dedup/clear", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := m.Gate().Status(); len(got) != 0 {
		t.Errorf("dedup records remain: %v", got)
	}
}

func TestAPI_ClearRequiresPost(t *testing.T) {
	// WHAT: GET on the clear endpoint is rejected.
	// WHY: The status surface is read-only; mutations are explicit POSTs.
	_, h := newTestAPI(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dedup/clear", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}
