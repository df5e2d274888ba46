package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rollcall/internal/model"
)

const recordColumns = `id, person_name, date, time, status, channel, created_at`

func (t *sqlTx) Record(ctx context.Context, name, date string) (model.Record, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE person_name = ? AND date = ?
	`, name, date)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, fmt.Errorf("record %q on %s: %w", name, date, ErrNotFound)
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// InsertRecord claims the (person, date) slot via the unique constraint.
// On conflict nothing is written and the existing row is returned with
// inserted=false.
func (t *sqlTx) InsertRecord(ctx context.Context, rec model.Record) (model.Record, bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO attendance (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(person_name, date) DO NOTHING
	`,
		rec.ID,
		rec.PersonName,
		rec.Date,
		rec.Time,
		string(rec.Status),
		string(rec.Channel),
		ts(rec.CreatedAt),
	)
	if err != nil {
		return model.Record{}, false, fmt.Errorf("insert record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.Record{}, false, fmt.Errorf("insert record: rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return rec, true, nil
	}

	existing, err := t.Record(ctx, rec.PersonName, rec.Date)
	if err != nil {
		return model.Record{}, false, fmt.Errorf("insert record: select existing: %w", err)
	}
	return existing, false, nil
}

func (t *sqlTx) RecordsOn(ctx context.Context, date string) ([]model.Record, error) {
	return t.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE date = ?
		ORDER BY time ASC, person_name COLLATE BINARY ASC
	`, date)
}

func (t *sqlTx) PersonRecords(ctx context.Context, name, from, to string) ([]model.Record, error) {
	return t.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE person_name = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, name, from, to)
}

func (t *sqlTx) queryRecords(ctx context.Context, query string, args ...any) ([]model.Record, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func scanRecord(r rowScanner) (model.Record, error) {
	var (
		rec                        model.Record
		status, channel, createdAt string
	)
	if err := r.Scan(&rec.ID, &rec.PersonName, &rec.Date, &rec.Time, &status, &channel, &createdAt); err != nil {
		return model.Record{}, err
	}
	rec.Status = model.Status(status)
	rec.Channel = model.Channel(channel)

	var err error
	if rec.CreatedAt, err = parseTS(createdAt); err != nil {
		return model.Record{}, fmt.Errorf("created_at: %w", err)
	}
	return rec, nil
}
