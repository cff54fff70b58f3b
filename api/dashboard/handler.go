// Package dashboard exposes operational KPIs and the trip audit trail over HTTP.
package dashboard

import (
	"net/http"
	"time"

	"github.com/letstalk-code/routecare/api/respond"
	"github.com/letstalk-code/routecare/core/audit"
	"github.com/letstalk-code/routecare/core/kpi"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
)

// Handler serves the /api/dashboard routes.
type Handler struct {
	store      *store.MemoryStore
	auditStore audit.Store
	token      string
}

// NewHandler returns an HTTP handler for dashboard queries. Audit requests
// must include an Authorization header with "Bearer <token>" when token is
// non-empty. The audit store may be nil when no trail is configured.
func NewHandler(st *store.MemoryStore, auditStore audit.Store, token string) http.Handler {
	h := &Handler{store: st, auditStore: auditStore, token: token}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/dashboard/kpis", h.kpis)
	mux.HandleFunc("GET /api/dashboard/audit", h.audit)
	return mux
}

func (h *Handler) kpis(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, kpi.Compute(h.store, time.Now()))
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	if h.token != "" {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+h.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	if h.auditStore == nil {
		respond.JSON(w, http.StatusOK, []audit.Record{})
		return
	}
	q := audit.Query{TripID: r.URL.Query().Get("trip_id")}
	if s := r.URL.Query().Get("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := r.URL.Query().Get("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	if s := r.URL.Query().Get("event"); s != "" {
		if v, err := model.ParseEventType(s); err == nil {
			q.Event = &v
		}
	}
	records, err := h.auditStore.Query(r.Context(), q)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, records)
}
