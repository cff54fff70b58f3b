// Package drivers exposes the driver roster and GPS ingestion over HTTP.
package drivers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/letstalk-code/routecare/api/respond"
	"github.com/letstalk-code/routecare/core/lifecycle"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
)

// driverView is a roster entry enriched with the driver's last known location.
type driverView struct {
	model.Driver
	LastPing *model.GPSPing `json:"last_ping,omitempty"`
}

// Handler serves the /api/drivers routes.
type Handler struct {
	machine *lifecycle.Machine
	store   *store.MemoryStore
}

// NewHandler returns an HTTP handler for driver operations.
func NewHandler(machine *lifecycle.Machine, st *store.MemoryStore) http.Handler {
	h := &Handler{machine: machine, store: st}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/drivers", h.list)
	mux.HandleFunc("GET /api/drivers/{id}", h.get)
	mux.HandleFunc("POST /api/drivers/{id}/location", h.location)
	return mux
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := store.DriverFilter{Zone: r.URL.Query().Get("zone")}
	if s := r.URL.Query().Get("status"); s != "" {
		v, err := model.ParseDriverStatus(s)
		if err != nil {
			respond.Error(w, err)
			return
		}
		f.Status = &v
	}
	list := h.store.ListDrivers(f)
	views := make([]driverView, len(list))
	for i, d := range list {
		views[i] = driverView{Driver: d}
		if ping, ok := h.store.LatestPing(d.ID); ok {
			p := ping
			views[i].LastPing = &p
		}
	}
	respond.JSON(w, http.StatusOK, views)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.GetDriver(r.PathValue("id"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	v := driverView{Driver: d}
	if ping, ok := h.store.LatestPing(d.ID); ok {
		p := ping
		v.LastPing = &p
	}
	respond.JSON(w, http.StatusOK, v)
}

func (h *Handler) location(w http.ResponseWriter, r *http.Request) {
	var ping model.GPSPing
	if err := json.NewDecoder(r.Body).Decode(&ping); err != nil {
		respond.Error(w, model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	ping.DriverID = r.PathValue("id")
	if ping.Timestamp.IsZero() {
		ping.Timestamp = time.Now().UTC()
	}
	if err := ping.Validate(); err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.machine.RecordPing(ping); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
