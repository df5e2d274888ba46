package model

import (
	"fmt"
	"time"
)

// SweepReport summarises one absence sweep over a date.
//
// Processed lists, in order, the people whose absence unit completed before
// the sweep returned, whether or not the unit wrote a fresh record.
type SweepReport struct {
	RunID           string   `json:"run_id,omitempty"`
	Date            string   `json:"date"`
	ConsideredCount int      `json:"considered_count"`
	AbsentCount     int      `json:"absent_count"`
	DroppedCount    int      `json:"dropped_count"`
	Processed       []string `json:"processed"`
	Absent          []string `json:"absent,omitempty"`
	Dropped         []string `json:"dropped,omitempty"`
}

func (r SweepReport) String() string {
	return fmt.Sprintf("sweep %s: considered=%d absent=%d dropped=%d",
		r.Date, r.ConsideredCount, r.AbsentCount, r.DroppedCount)
}

// SweepRun is the persisted history row for a completed sweep.
type SweepRun struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"`
	ConsideredCount int       `json:"considered_count"`
	AbsentCount     int       `json:"absent_count"`
	DroppedCount    int       `json:"dropped_count"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}
