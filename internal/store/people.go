package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/model"
)

const personColumns = `name, image_path, status, total_absences, consecutive_absences, created_at, last_updated`

func (t *sqlTx) Person(ctx context.Context, name string) (model.Person, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE name = ?`, name)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Person{}, fmt.Errorf("person %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return model.Person{}, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (t *sqlTx) People(ctx context.Context, status model.Lifecycle) ([]model.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY name COLLATE BINARY ASC`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	people := []model.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return people, nil
}

func (t *sqlTx) InsertPerson(ctx context.Context, p model.Person) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO people (`+personColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`,
		p.Name,
		p.ImagePath,
		string(p.Status),
		p.TotalAbsences,
		p.ConsecutiveAbsences,
		ts(p.CreatedAt),
		ts(p.LastUpdated),
	)
	if err != nil {
		return false, fmt.Errorf("insert person: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert person: rows affected: %w", err)
	}
	return n > 0, nil
}

func (t *sqlTx) UpdatePerson(ctx context.Context, p model.Person) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE people
		SET image_path = ?, status = ?, total_absences = ?, consecutive_absences = ?, last_updated = ?
		WHERE name = ?
	`,
		p.ImagePath,
		string(p.Status),
		p.TotalAbsences,
		p.ConsecutiveAbsences,
		ts(p.LastUpdated),
		p.Name,
	)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update person: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update person %q: %w", p.Name, ErrNotFound)
	}
	return nil
}

func (t *sqlTx) ResetCounters(ctx context.Context, name string, which model.Counter, now time.Time) (int64, error) {
	var set string
	switch which {
	case model.CounterBoth:
		set = `total_absences = 0, consecutive_absences = 0`
	case model.CounterTotal:
		set = `total_absences = 0`
	case model.CounterConsecutive:
		set = `consecutive_absences = 0`
	default:
		return 0, fmt.Errorf("reset counters: unknown counter %q", which)
	}

	query := `UPDATE people SET ` + set + `, last_updated = ?`
	args := []any{ts(now)}
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset counters: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset counters: rows affected: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(r rowScanner) (model.Person, error) {
	var (
		p                    model.Person
		status               string
		createdAt, updatedAt string
	)
	if err := r.Scan(&p.Name, &p.ImagePath, &status, &p.TotalAbsences, &p.ConsecutiveAbsences, &createdAt, &updatedAt); err != nil {
		return model.Person{}, err
	}
	p.Status = model.Lifecycle(status)

	var err error
	if p.CreatedAt, err = parseTS(createdAt); err != nil {
		return model.Person{}, fmt.Errorf("created_at: %w", err)
	}
	if p.LastUpdated, err = parseTS(updatedAt); err != nil {
		return model.Person{}, fmt.Errorf("last_updated: %w", err)
	}
	return p, nil
}
