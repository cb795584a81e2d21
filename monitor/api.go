package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler returns the operational HTTP API:
//
//	GET  /healthz           — liveness
//	GET  /api/status        — per-product stock + per-SKU suppression state
//	POST /api/dedup/clear   — clear one SKU's suppression (?sku=) or all
func Handler(m *Monitor) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, m.Status())
	})

	r.Post("/api/dedup/clear", func(w http.ResponseWriter, req *http.Request) {
		sku := req.URL.Query().Get("sku")
		if sku == "" {
			m.Gate().ClearAll()
		} else {
			m.Gate().Clear(sku)
		}
		writeJSON(w, http.StatusOK, map[string]string{"cleared": orAll(sku)})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func orAll(sku string) string {
	if sku == "" {
		return "all"
	}
	return sku
}
