package store

import (
	"context"
	"fmt"

	"github.com/roach88/rollcall/internal/model"
)

func (t *sqlTx) InsertSweepRun(ctx context.Context, run model.SweepRun) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sweep_runs
		(id, date, considered_count, absent_count, dropped_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Date,
		run.ConsideredCount,
		run.AbsentCount,
		run.DroppedCount,
		ts(run.StartedAt),
		ts(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert sweep run: %w", err)
	}
	return nil
}

func (t *sqlTx) SweepRuns(ctx context.Context, limit int) ([]model.SweepRun, error) {
	query := `
		SELECT id, date, considered_count, absent_count, dropped_count, started_at, finished_at
		FROM sweep_runs
		ORDER BY rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sweep runs: %w", err)
	}
	defer rows.Close()

	runs := []model.SweepRun{}
	for rows.Next() {
		var (
			run               model.SweepRun
			started, finished string
		)
		if err := rows.Scan(&run.ID, &run.Date, &run.ConsideredCount, &run.AbsentCount, &run.DroppedCount, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan sweep run: %w", err)
		}
		if run.StartedAt, err = parseTS(started); err != nil {
			return nil, fmt.Errorf("started_at: %w", err)
		}
		if run.FinishedAt, err = parseTS(finished); err != nil {
			return nil, fmt.Errorf("finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep runs: %w", err)
	}
	return runs, nil
}
