package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mediacutlet/nomadachi/internal/journal"
	"github.com/mediacutlet/nomadachi/internal/services"
)

// Handler holds all HTTP handlers
type Handler struct {
	tracker *services.Tracker
	journal *journal.DB // nil when journaling is disabled
	logger  *zap.Logger
}

// New creates a new Handler
func New(tracker *services.Tracker, journalDB *journal.DB, logger *zap.Logger) *Handler {
	return &Handler{
		tracker: tracker,
		journal: journalDB,
		logger:  logger,
	}
}

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Discovery intake
	mux.HandleFunc("/api/event", h.Event)

	// Progression
	mux.HandleFunc("/api/status", h.Status)
	mux.HandleFunc("/api/stats", h.Stats)

	// SSE
	mux.HandleFunc("/api/sse", h.StatusSSE)

	// Liveness
	mux.HandleFunc("/healthz", h.Health)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryInt parses an integer query parameter, clamping to [1, max]
func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
