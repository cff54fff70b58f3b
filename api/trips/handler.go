// Package trips exposes trip CRUD and lifecycle transitions over HTTP.
package trips

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/letstalk-code/routecare/api/respond"
	"github.com/letstalk-code/routecare/core/lifecycle"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
)

// Handler serves the /api/trips routes.
type Handler struct {
	machine *lifecycle.Machine
	store   *store.MemoryStore
}

// NewHandler returns an HTTP handler for trip operations.
func NewHandler(machine *lifecycle.Machine, st *store.MemoryStore) http.Handler {
	h := &Handler{machine: machine, store: st}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/trips", h.create)
	mux.HandleFunc("GET /api/trips", h.list)
	mux.HandleFunc("GET /api/trips/{id}", h.get)
	mux.HandleFunc("GET /api/trips/{id}/events", h.events)
	mux.HandleFunc("POST /api/trips/{id}/events", h.applyEvent)
	mux.HandleFunc("POST /api/trips/{id}/assign", h.assign)
	mux.HandleFunc("POST /api/trips/{id}/unassign", h.unassign)
	return mux
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var t model.Trip
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respond.Error(w, model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	created, err := h.machine.CreateTrip(t, actor(r))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := store.TripFilter{DriverID: r.URL.Query().Get("driver_id")}
	if s := r.URL.Query().Get("status"); s != "" {
		v, err := model.ParseTripStatus(s)
		if err != nil {
			respond.Error(w, err)
			return
		}
		f.Status = &v
	}
	if s := r.URL.Query().Get("priority"); s != "" {
		v, err := model.ParseTripPriority(s)
		if err != nil {
			respond.Error(w, err)
			return
		}
		f.Priority = &v
	}
	if s := r.URL.Query().Get("type"); s != "" {
		v, err := model.ParseTripType(s)
		if err != nil {
			respond.Error(w, err)
			return
		}
		f.Type = &v
	}
	if s := r.URL.Query().Get("from"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			f.ScheduledFrom = t
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			f.ScheduledTo = t
		}
	}
	respond.JSON(w, http.StatusOK, h.store.ListTrips(f))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetTrip(r.PathValue("id"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.GetTrip(r.PathValue("id")); err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, h.store.ListEvents(r.PathValue("id")))
}

type eventRequest struct {
	Type     model.EventType `json:"type"`
	DriverID string          `json:"driver_id,omitempty"`
	Location *model.GeoPoint `json:"location,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

func (h *Handler) applyEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	trip, err := h.machine.Apply(r.PathValue("id"), lifecycle.EventInput{
		Type:      req.Type,
		DriverID:  req.DriverID,
		Location:  req.Location,
		Notes:     req.Notes,
		CreatedBy: actor(r),
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, trip)
}

type assignRequest struct {
	DriverID string `json:"driver_id"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	if req.DriverID == "" {
		respond.Error(w, model.ValidationError{Field: "driver_id", Reason: "required"})
		return
	}
	trip, err := h.machine.AssignDriver(r.PathValue("id"), req.DriverID, actor(r))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, trip)
}

func (h *Handler) unassign(w http.ResponseWriter, r *http.Request) {
	trip, err := h.machine.UnassignDriver(r.PathValue("id"), actor(r))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, trip)
}

// actor identifies the requesting operator for the audit trail.
func actor(r *http.Request) string {
	return r.Header.Get("X-Operator")
}
