package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mediacutlet/nomadachi/internal/types"
)

// Comment frames at this interval keep idle streams from being
// reaped by proxies
const heartbeatInterval = 15 * time.Second

// StatusSSE handles SSE connections for live progression updates
func (h *Handler) StatusSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Subscribe to updates
	updates := h.tracker.Subscribe()
	defer h.tracker.Unsubscribe(updates)

	// Send current state immediately
	h.sendStatus(w, flusher, h.tracker.Status())

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	// Listen for updates
	for {
		select {
		case <-r.Context().Done():
			return
		case update, ok := <-updates:
			if !ok {
				// Tracker is shutting down
				h.sendEvent(w, flusher, "bye", `{"status":"closed"}`)
				return
			}
			h.sendStatus(w, flusher, update)
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func (h *Handler) sendStatus(w http.ResponseWriter, flusher http.Flusher, update *types.StatusUpdate) {
	jsonData, _ := json.Marshal(update)
	h.sendEvent(w, flusher, "status", string(jsonData))
}

func (h *Handler) sendEvent(w http.ResponseWriter, flusher http.Flusher, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
