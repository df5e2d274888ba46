package handlers

import (
	"net/http"
	"strconv"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/model"
)

// defaultSweepLimit caps GET /sweeps when no limit is given.
const defaultSweepLimit = 20

// LedgerHandler serves read-only ledger views.
type LedgerHandler struct {
	engine *engine.Engine
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(eng *engine.Engine) *LedgerHandler {
	return &LedgerHandler{engine: eng}
}

// Day returns the ledger for one date.
func (h *LedgerHandler) Day(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.DayReport(r.Context(), pathParam(r, "date"))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if report.Records == nil {
		report.Records = []model.Record{}
	}
	respondJSON(w, http.StatusOK, report)
}

// History returns a person's records, optionally bounded by ?from= and ?to=.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := h.engine.PersonHistory(r.Context(), pathParam(r, "name"), q.Get("from"), q.Get("to"))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	respondJSON(w, http.StatusOK, records)
}

// Sweeps returns recent sweep runs, newest first.
func (h *LedgerHandler) Sweeps(w http.ResponseWriter, r *http.Request) {
	limit := defaultSweepLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := h.engine.SweepHistory(r.Context(), limit)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if runs == nil {
		runs = []model.SweepRun{}
	}
	respondJSON(w, http.StatusOK, runs)
}
