package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/roach88/rollcall/internal/model"
)

// errRollback makes View discard its transaction without reporting an error.
var errRollback = errors.New("rollback")

// Backend is the transactional entry point shared by every caller of the
// roster and ledger. *Store implements it.
type Backend interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	// Person returns the roster entry for name, or ErrNotFound.
	Person(ctx context.Context, name string) (model.Person, error)
	// People lists roster entries ordered by name. An empty status lists everyone.
	People(ctx context.Context, status model.Lifecycle) ([]model.Person, error)
	// InsertPerson adds p unless the name is taken; inserted reports which.
	InsertPerson(ctx context.Context, p model.Person) (inserted bool, err error)
	// UpdatePerson overwrites the mutable fields of an existing entry.
	UpdatePerson(ctx context.Context, p model.Person) error
	// ResetCounters zeroes the selected counters for name, or for everyone
	// when name is empty, and returns the number of rows touched.
	ResetCounters(ctx context.Context, name string, which model.Counter, now time.Time) (int64, error)

	// Record returns the ledger row for (name, date), or ErrNotFound.
	Record(ctx context.Context, name, date string) (model.Record, error)
	// InsertRecord writes rec unless (PersonName, Date) already has a row.
	// It always returns the row that is stored after the call.
	InsertRecord(ctx context.Context, rec model.Record) (stored model.Record, inserted bool, err error)
	// RecordsOn lists a day's rows ordered by time then name.
	RecordsOn(ctx context.Context, date string) ([]model.Record, error)
	// PersonRecords lists a person's rows with from <= date <= to, oldest first.
	PersonRecords(ctx context.Context, name, from, to string) ([]model.Record, error)

	// Card returns the link for cardID whether or not it is active, or ErrNotFound.
	Card(ctx context.Context, cardID string) (model.CardLink, error)
	// PutCard inserts or replaces the link for link.CardID.
	PutCard(ctx context.Context, link model.CardLink) error
	// Cards lists every link ordered by card id.
	Cards(ctx context.Context) ([]model.CardLink, error)

	// InsertSweepRun appends a sweep history row.
	InsertSweepRun(ctx context.Context, run model.SweepRun) error
	// SweepRuns lists the most recent sweeps first; limit <= 0 lists all.
	SweepRuns(ctx context.Context, limit int) ([]model.SweepRun, error)
}

// sqlTx implements Tx on a database/sql transaction.
type sqlTx struct {
	tx *sql.Tx
}

// ts formats timestamps for TEXT columns.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses a TEXT timestamp column written by ts.
func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
