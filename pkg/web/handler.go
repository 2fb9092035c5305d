// Package web serves the benchmark dashboard and its JSON API.
package web

import (
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/koaf/server-benchmark/pkg/bench"
	"github.com/koaf/server-benchmark/pkg/metrics"
	"github.com/koaf/server-benchmark/pkg/store"
)

//go:embed dashboard.html
var assets embed.FS

// Handler routes dashboard and API requests. The API contract is shared
// with the embedded dashboard JavaScript; status and result payloads keep
// their JSON field names stable for that reason.
type Handler struct {
	log    *slog.Logger
	runner *bench.Runner
	store  *store.Store
	mux    *http.ServeMux
}

// NewHandler builds the HTTP handler. exporter may be nil, in which case
// no /metrics endpoint is registered.
func NewHandler(log *slog.Logger, runner *bench.Runner, st *store.Store, exporter *metrics.Exporter) *Handler {
	h := &Handler{
		log:    log,
		runner: runner,
		store:  st,
		mux:    http.NewServeMux(),
	}

	h.mux.HandleFunc("/", h.handleIndex)
	h.mux.HandleFunc("/api/benchmark", h.handleBenchmark)
	h.mux.HandleFunc("/api/status", h.handleStatus)
	h.mux.HandleFunc("/api/history", h.handleHistory)
	h.mux.HandleFunc("/api/save", h.handleSave)
	h.mux.HandleFunc("/api/delete", h.handleDelete)
	h.mux.HandleFunc("/api/clear", h.handleClear)
	if exporter != nil {
		h.mux.Handle("/metrics", exporter.Handler())
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.mux.ServeHTTP(w, r)
	h.log.Debug("request handled",
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
		"duration_ms", time.Since(start).Milliseconds())
}

// statusResponse is the /api/status payload polled by the dashboard.
type statusResponse struct {
	Running  bool           `json:"running"`
	Results  bench.Envelope `json:"results"`
	Progress bench.Progress `json:"progress"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	// The root pattern also matches every unregistered path.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	page, err := assets.ReadFile("dashboard.html")
	if err != nil {
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleBenchmark starts an unsaved run if none is active and reports the
// current state either way.
func (h *Handler) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	h.runner.Start("", nil)

	h.writeJSON(w, map[string]any{
		"running": h.runner.Running(),
		"results": h.runner.Results(),
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	h.writeJSON(w, statusResponse{
		Running:  h.runner.Running(),
		Results:  h.runner.Results(),
		Progress: h.runner.Progress(),
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, h.store.GetAll())
}

// handleSave starts a run whose result is persisted on completion. When a
// run is already active the request is acknowledged without starting
// another; the client converges via status polling either way.
func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		CustomName string `json:"custom_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.runner.Start(req.CustomName, func(env bench.Envelope) {
		if _, err := h.store.Add(env); err != nil {
			h.log.Error("failed to persist benchmark result", "error", err)
		}
	})

	h.writeJSON(w, map[string]string{"status": "started"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ID != "" {
		if err := h.store.Delete(req.ID); err != nil {
			h.log.Error("failed to delete benchmark result", "id", req.ID, "error", err)
			http.Error(w, "failed to delete result", http.StatusInternalServerError)
			return
		}
	}

	h.writeJSON(w, map[string]string{"status": "deleted"})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if err := h.store.ClearAll(); err != nil {
		h.log.Error("failed to clear benchmark results", "error", err)
		http.Error(w, "failed to clear results", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{"status": "cleared"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}
