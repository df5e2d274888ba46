package handlers

import (
	"fmt"
	"net/http"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/policy"
)

// AttendanceHandler serves recognition events and sweeps.
type AttendanceHandler struct {
	engine *engine.Engine
	clock  policy.Clock
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(eng *engine.Engine, clock policy.Clock) *AttendanceHandler {
	return &AttendanceHandler{engine: eng, clock: clock}
}

// RecordRequest is the body of POST /attendance.
type RecordRequest struct {
	Name    string `json:"name"`
	Channel string `json:"channel,omitempty"`
	At      string `json:"at,omitempty"`
}

// ScanRequest is the body of POST /scans.
type ScanRequest struct {
	Card string `json:"card"`
	At   string `json:"at,omitempty"`
}

// SweepRequest is the body of POST /sweeps.
type SweepRequest struct {
	Date  string `json:"date,omitempty"`
	Force bool   `json:"force,omitempty"`
}

// Record handles a recognition event by name.
func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Channel == "" {
		req.Channel = string(model.ChannelFace)
	}
	now, err := eventTime(h.clock, h.engine.Policy(), req.At)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid at %q", req.At))
		return
	}

	out, err := h.engine.RecordAttendance(r.Context(), req.Name, model.Channel(req.Channel), now)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondOutcome(w, out)
}

// Scan handles a badge scan.
func (h *AttendanceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	now, err := eventTime(h.clock, h.engine.Policy(), req.At)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid at %q", req.At))
		return
	}

	out, err := h.engine.RecordCardScan(r.Context(), req.Card, now)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondOutcome(w, out)
}

func respondOutcome(w http.ResponseWriter, out engine.Outcome) {
	status := http.StatusOK
	if out.WasNewRecord {
		status = http.StatusCreated
	}
	respondJSON(w, status, out)
}

// Sweep closes a session. The date defaults to today; an open window is
// refused with 409 unless force is set.
func (h *AttendanceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	pol := h.engine.Policy()
	now := h.clock.Now()
	if req.Date == "" {
		req.Date = pol.DateOf(now)
	}
	if !req.Force {
		closed, err := pol.WindowClosed(req.Date, now)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("invalid date %q", req.Date),
				Code:  string(engine.ErrCodeInvalidArgument),
			})
			return
		}
		if !closed {
			respondJSON(w, http.StatusConflict, ErrorResponse{
				Error: fmt.Sprintf("attendance window for %s closes at %s", req.Date, pol.LateEnd),
				Code:  CodeWindowOpen,
			})
			return
		}
	}

	report, err := h.engine.SweepAbsences(r.Context(), req.Date)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
