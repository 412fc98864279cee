package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mediacutlet/nomadachi/internal/types"
)

// Event handles POST /api/event: one observed access point
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var ev types.DiscoveryEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	// An event with nothing to identify the network cannot score anything
	if ev.ESSID == "" && ev.BSSID == "" && ev.Band == "" && ev.Channel == 0 {
		writeError(w, http.StatusBadRequest, "event has no identifying fields")
		return
	}

	result, err := h.tracker.HandleDiscovery(r.Context(), ev)
	if err != nil {
		h.logger.Error("discovery intake failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record discovery")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
