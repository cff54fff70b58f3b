// Package stream serves live dispatch snapshots as server-sent events.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/letstalk-code/routecare/core/broadcast"
	"github.com/letstalk-code/routecare/core/logger"
)

// Handler streams dashboard snapshots to connected clients.
type Handler struct {
	broadcaster *broadcast.Broadcaster
	log         logger.Logger
}

// NewHandler returns an HTTP handler serving GET /api/stream.
func NewHandler(b *broadcast.Broadcaster, log logger.Logger) http.Handler {
	h := &Handler{broadcaster: b, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stream", h.stream)
	return mux
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscription ends when the client disconnects; the broadcaster
	// closes the channel on context cancellation.
	snapshots := h.broadcaster.Subscribe(r.Context())
	for snap := range snapshots {
		data, err := json.Marshal(snap)
		if err != nil {
			h.log.Errorf("encode snapshot: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}
