package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/letstalk-code/routecare/core/audit"
	"github.com/letstalk-code/routecare/core/kpi"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
)

func TestKpisEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	_, err := st.CreateDriver(model.Driver{ID: "drv-1", Status: model.DriverAvailable})
	require.NoError(t, err)

	h := NewHandler(st, nil, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard/kpis", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got kpi.Kpis
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, 1, got.AvailableDrivers)
}

func TestAuditRequiresToken(t *testing.T) {
	st := store.NewMemoryStore()
	h := NewHandler(st, nil, "secret")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard/audit", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/audit", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestAuditFiltersByTrip(t *testing.T) {
	dir := t.TempDir()
	auditStore, err := audit.NewJSONLStore(dir + "/audit.jsonl")
	require.NoError(t, err)
	defer func() { require.NoError(t, auditStore.Close()) }()

	now := time.Now().UTC()
	for _, rec := range []audit.Record{
		{Timestamp: now, TripID: "trip-1", Event: model.EventTripAssigned, From: model.StatusUnassigned, To: model.StatusAssigned, CreatedBy: "op-1"},
		{Timestamp: now, TripID: "trip-2", Event: model.EventTripCancelled, From: model.StatusUnassigned, To: model.StatusCancelled, CreatedBy: "op-1"},
	} {
		require.NoError(t, auditStore.Append(context.Background(), rec))
	}

	st := store.NewMemoryStore()
	h := NewHandler(st, auditStore, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard/audit?trip_id=trip-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var records []audit.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 1)
	require.Equal(t, "trip-1", records[0].TripID)
}
