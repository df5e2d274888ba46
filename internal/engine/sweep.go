package engine

import (
	"context"
	"fmt"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

// SweepAbsences marks every active person without a ledger row on date as
// absent, increments their counters and drops those who reach the policy
// threshold.
//
// The sweep does not check the clock: callers decide when date's window has
// closed. Each person is a separate retried unit. On failure the returned
// report lists exactly the people whose unit completed, alongside the
// error. Re-running a date is safe: people already holding a row for the
// date are skipped and never penalized twice.
func (e *Engine) SweepAbsences(ctx context.Context, date string) (model.SweepReport, error) {
	report := model.SweepReport{Date: date, Processed: []string{}}
	if err := e.parseDate(date); err != nil {
		return report, err
	}
	started := e.clock.Now()

	var (
		active   []model.Person
		recorded map[string]bool
	)
	err := e.view(ctx, "sweep: load roster", func(tx store.Tx) error {
		people, err := tx.People(ctx, model.LifecycleActive)
		if err != nil {
			return err
		}
		records, err := tx.RecordsOn(ctx, date)
		if err != nil {
			return err
		}
		active = people
		recorded = make(map[string]bool, len(records))
		for _, r := range records {
			recorded[r.PersonName] = true
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("sweep %s: %w", date, err)
	}
	report.ConsideredCount = len(active)

	for _, p := range active {
		if recorded[p.Name] {
			continue
		}
		absent, dropped, err := e.markAbsent(ctx, p.Name, date)
		if err != nil {
			e.logger.Error("sweep stopped",
				"date", date, "person", p.Name, "processed", len(report.Processed), "error", err)
			return report, fmt.Errorf("sweep %s: person %q: %w", date, p.Name, err)
		}
		report.Processed = append(report.Processed, p.Name)
		if absent {
			report.AbsentCount++
			report.Absent = append(report.Absent, p.Name)
		}
		if dropped {
			report.DroppedCount++
			report.Dropped = append(report.Dropped, p.Name)
			e.logger.Info("person dropped", "person", p.Name, "date", date, "drop_on", e.policy.DropOn)
		}
	}

	run := model.SweepRun{
		ID:              e.ids.Generate(),
		Date:            date,
		ConsideredCount: report.ConsideredCount,
		AbsentCount:     report.AbsentCount,
		DroppedCount:    report.DroppedCount,
		StartedAt:       started,
		FinishedAt:      e.clock.Now(),
	}
	err = e.update(ctx, "sweep: record run", func(tx store.Tx) error {
		return tx.InsertSweepRun(ctx, run)
	})
	if err != nil {
		return report, fmt.Errorf("sweep %s: record run: %w", date, err)
	}
	report.RunID = run.ID

	e.logger.Info("sweep complete",
		"date", date,
		"considered", report.ConsideredCount,
		"absent", report.AbsentCount,
		"dropped", report.DroppedCount,
	)
	return report, nil
}

// markAbsent is the per-person sweep unit. The person is re-read inside the
// transaction: a concurrent drop or a same-day recognition wins.
func (e *Engine) markAbsent(ctx context.Context, name, date string) (absent, dropped bool, err error) {
	err = e.update(ctx, "sweep: mark absent", func(tx store.Tx) error {
		absent, dropped = false, false

		p, err := loadPerson(ctx, tx, name)
		if err != nil {
			if IsUnknownPerson(err) {
				return nil
			}
			return err
		}
		if !p.Active() {
			return nil
		}

		now := e.clock.Now()
		rec := model.Record{
			ID:         e.ids.Generate(),
			PersonName: name,
			Date:       date,
			Time:       model.AbsentTime,
			Status:     model.StatusAbsent,
			Channel:    model.ChannelSystem,
			CreatedAt:  now,
		}
		_, inserted, err := tx.InsertRecord(ctx, rec)
		if err != nil || !inserted {
			return err
		}

		p.TotalAbsences++
		p.ConsecutiveAbsences++
		p.LastUpdated = now
		if e.policy.ShouldDrop(p) {
			p.Status = model.LifecycleDropped
			dropped = true
		}
		absent = true
		return tx.UpdatePerson(ctx, p)
	})
	return absent, dropped, err
}
