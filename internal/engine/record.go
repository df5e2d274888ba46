package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

// OutcomeKind distinguishes the successful results of RecordAttendance.
type OutcomeKind string

const (
	// OutcomeRecorded means a fresh ledger row was written.
	OutcomeRecorded OutcomeKind = "recorded"

	// OutcomeAlreadyRecorded means the day already had a row; Status is the
	// stored status and nothing changed.
	OutcomeAlreadyRecorded OutcomeKind = "already_recorded"

	// OutcomeOutsideWindow means the event fell on a disallowed day or
	// outside [present_start, late_end]; nothing was written.
	OutcomeOutsideWindow OutcomeKind = "outside_window"
)

// Outcome is the result of a recognition event. Presentation adapters need
// nothing else.
type Outcome struct {
	Kind         OutcomeKind   `json:"kind"`
	Person       string        `json:"person"`
	Date         string        `json:"date"`
	Status       model.Status  `json:"status,omitempty"`
	Channel      model.Channel `json:"channel"`
	WasNewRecord bool          `json:"was_new_record"`
	Record       *model.Record `json:"record,omitempty"`
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeRecorded:
		return fmt.Sprintf("%s: %s on %s via %s", o.Person, o.Status, o.Date, o.Channel)
	case OutcomeAlreadyRecorded:
		return fmt.Sprintf("%s: already recorded %s on %s", o.Person, o.Status, o.Date)
	default:
		return fmt.Sprintf("%s: outside of policy window", o.Person)
	}
}

// RecordAttendance classifies a recognition event for name at now and
// writes the day's ledger row if none exists yet.
//
// Order of checks: unknown person, inactive person, policy window, ledger
// slot. A repeat event on the same day returns the stored status with
// WasNewRecord=false and leaves counters alone.
func (e *Engine) RecordAttendance(ctx context.Context, name string, channel model.Channel, now time.Time) (Outcome, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Outcome{}, err
	}
	if channel == "" {
		return Outcome{}, invalidArgument("channel is required")
	}

	var out Outcome
	err = e.update(ctx, "record attendance", func(tx store.Tx) error {
		out = Outcome{Person: name, Channel: channel, Date: e.policy.DateOf(now)}

		p, err := loadPerson(ctx, tx, name)
		if err != nil {
			return err
		}
		if !p.Active() {
			return inactivePerson(name)
		}

		status, ok := e.policy.Classify(now)
		if !ok {
			out.Kind = OutcomeOutsideWindow
			return nil
		}

		rec := model.Record{
			ID:         e.ids.Generate(),
			PersonName: name,
			Date:       out.Date,
			Time:       e.policy.Local(now).Format(model.TimeLayout),
			Status:     status,
			Channel:    channel,
			CreatedAt:  now,
		}
		stored, inserted, err := tx.InsertRecord(ctx, rec)
		if err != nil {
			return err
		}
		out.Status = stored.Status
		out.Channel = stored.Channel
		out.Record = &stored

		if !inserted {
			out.Kind = OutcomeAlreadyRecorded
			return nil
		}

		p.ConsecutiveAbsences = 0
		p.LastUpdated = now
		if err := tx.UpdatePerson(ctx, p); err != nil {
			return err
		}
		out.Kind = OutcomeRecorded
		out.WasNewRecord = true
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	switch out.Kind {
	case OutcomeRecorded:
		e.logger.Info("attendance recorded",
			"person", out.Person, "date", out.Date, "status", out.Status, "channel", out.Channel)
	default:
		e.logger.Debug("attendance not recorded",
			"person", out.Person, "date", out.Date, "kind", out.Kind, "status", out.Status)
	}
	return out, nil
}
