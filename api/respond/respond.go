// Package respond maps domain errors to HTTP status codes and writes JSON
// responses. All API packages share this mapping so a given error class
// always surfaces with the same status.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/letstalk-code/routecare/core/lifecycle"
	"github.com/letstalk-code/routecare/core/model"
	"github.com/letstalk-code/routecare/core/store"
)

// JSON writes v with the given status code. The body is marshalled before
// any header is written so an unencodable value still yields a clean 500.
func JSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

type errBody struct {
	Error string `json:"error"`
}

// Error writes err as JSON with a status derived from its type.
func Error(w http.ResponseWriter, err error) {
	JSON(w, StatusFor(err), errBody{Error: err.Error()})
}

// StatusFor maps a domain error to its HTTP status code. Unknown errors
// surface as 500.
func StatusFor(err error) int {
	var nf store.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound
	}
	var conflict store.ConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict
	}
	var invalid lifecycle.InvalidTransitionError
	if errors.As(err, &invalid) {
		return http.StatusConflict
	}
	var ineligible lifecycle.IneligibleDriverError
	if errors.As(err, &ineligible) {
		return http.StatusUnprocessableEntity
	}
	var validation model.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
