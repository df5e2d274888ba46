package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/policy"
)

// PeopleHandler serves the roster.
type PeopleHandler struct {
	engine *engine.Engine
	clock  policy.Clock
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(eng *engine.Engine, clock policy.Clock) *PeopleHandler {
	return &PeopleHandler{engine: eng, clock: clock}
}

// CreatePersonRequest is the body of POST /people.
type CreatePersonRequest struct {
	Name      string `json:"name"`
	ImagePath string `json:"image_path,omitempty"`
}

// ResetRequest is the body of POST /people/{name}/reset.
type ResetRequest struct {
	Counter string `json:"counter,omitempty"`
}

// ResetResponse reports how many roster rows a reset touched.
type ResetResponse struct {
	Counter model.Counter `json:"counter"`
	Updated int64         `json:"updated"`
}

// List returns the roster, optionally filtered by ?status=active|dropped.
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := model.Lifecycle(r.URL.Query().Get("status"))
	people, err := h.engine.ListPeople(r.Context(), filter)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if people == nil {
		people = []model.Person{}
	}
	respondJSON(w, http.StatusOK, people)
}

// Create registers a person.
func (h *PeopleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	p, err := h.engine.RegisterPerson(r.Context(), req.Name, req.ImagePath, h.clock.Now())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// Get returns one person.
func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.Person(r.Context(), pathParam(r, "name"))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Drop marks a person dropped.
func (h *PeopleHandler) Drop(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.engine.Drop)
}

// Reactivate returns a dropped person to the roster with cleared counters.
func (h *PeopleHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.engine.Reactivate)
}

func (h *PeopleHandler) lifecycle(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, time.Time) (model.Person, error)) {
	p, err := fn(r.Context(), pathParam(r, "name"), h.clock.Now())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Reset clears a person's absence counters. The counter defaults to both.
func (h *PeopleHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	counter := model.Counter(req.Counter)
	if counter == "" {
		counter = model.CounterBoth
	}
	n, err := h.engine.ResetCounters(r.Context(), pathParam(r, "name"), counter, h.clock.Now())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ResetResponse{Counter: counter, Updated: n})
}
