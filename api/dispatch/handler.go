// Package dispatch exposes driver suggestions and the dispatch queue over HTTP.
package dispatch

import (
	"net/http"
	"strconv"
	"time"

	"github.com/letstalk-code/routecare/api/respond"
	coredispatch "github.com/letstalk-code/routecare/core/dispatch"
	coremetrics "github.com/letstalk-code/routecare/core/metrics"
	"github.com/letstalk-code/routecare/core/model"
)

// Handler serves the /api/dispatch routes.
type Handler struct {
	engine *coredispatch.Engine
	sink   coremetrics.MetricsSink
}

// NewHandler returns an HTTP handler for dispatch operations. The sink may be
// nil when no metrics are configured.
func NewHandler(engine *coredispatch.Engine, sink coremetrics.MetricsSink) http.Handler {
	h := &Handler{engine: engine, sink: sink}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/dispatch/suggestions", h.suggestions)
	mux.HandleFunc("GET /api/dispatch/queue", h.queue)
	return mux
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	tripID := r.URL.Query().Get("trip_id")
	if tripID == "" {
		respond.Error(w, model.ValidationError{Field: "trip_id", Reason: "required"})
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			respond.Error(w, model.ValidationError{Field: "limit", Reason: "must be an integer"})
			return
		}
		limit = v
	}
	result, err := h.engine.SuggestDrivers(tripID, limit)
	if err != nil {
		respond.Error(w, err)
		return
	}
	h.recordSuggestion(result)
	respond.JSON(w, http.StatusOK, result)
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	view, err := coredispatch.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		respond.Error(w, model.ValidationError{Field: "view", Reason: err.Error()})
		return
	}
	trips := h.engine.Queue(view)
	if h.sink != nil {
		if rec, ok := h.sink.(coremetrics.QueueDepthRecorder); ok {
			_ = rec.RecordQueueDepth(coremetrics.QueueDepthEvent{
				View:  view.String(),
				Depth: len(trips),
				Time:  time.Now().UTC(),
			})
		}
	}
	respond.JSON(w, http.StatusOK, trips)
}

func (h *Handler) recordSuggestion(result coredispatch.Suggestions) {
	if h.sink == nil {
		return
	}
	rec, ok := h.sink.(coremetrics.SuggestionRecorder)
	if !ok {
		return
	}
	top := 0.0
	if len(result.Suggestions) > 0 {
		top = result.Suggestions[0].Score
	}
	_ = rec.RecordSuggestion(coremetrics.SuggestionEvent{
		TripID:     result.TripID,
		Candidates: len(result.Suggestions),
		TopScore:   top,
		Time:       time.Now().UTC(),
	})
}
