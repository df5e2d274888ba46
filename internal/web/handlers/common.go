package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/policy"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// AtLayout is the format accepted in "at" fields, in the policy timezone.
const AtLayout = "2006-01-02 15:04:05"

// CodeWindowOpen is reported when a sweep is requested before the
// attendance window has closed.
const CodeWindowOpen = "WINDOW_OPEN"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Person string `json:"person,omitempty"`
	Card   string `json:"card,omitempty"`
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondEngineError maps an engine error to its HTTP status. Anything that
// is not an *engine.Error is a 500.
func respondEngineError(w http.ResponseWriter, err error) {
	var e *engine.Error
	if !errors.As(err, &e) {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	body := ErrorResponse{Error: e.Message, Code: string(e.Code), Person: e.Person, Card: e.Card}
	if e.Other != "" {
		body.Person = e.Other
	}
	respondJSON(w, StatusFor(e.Code), body)
}

// StatusFor returns the HTTP status for an engine error code.
func StatusFor(code engine.ErrorCode) int {
	switch code {
	case engine.ErrCodeUnknownPerson, engine.ErrCodeCardNotFound:
		return http.StatusNotFound
	case engine.ErrCodeInactivePerson,
		engine.ErrCodeNotDropped,
		engine.ErrCodeAlreadyDropped,
		engine.ErrCodeCardAlreadyLinked,
		engine.ErrCodePersonExists:
		return http.StatusConflict
	case engine.ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	case engine.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pathParam returns the unescaped chi URL parameter key.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// eventTime parses at in the policy timezone, or reads the clock if at is
// empty.
func eventTime(clock policy.Clock, pol policy.Policy, at string) (time.Time, error) {
	if at == "" {
		return clock.Now(), nil
	}
	return time.ParseInLocation(AtLayout, at, pol.Location)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
