// Package store provides SQLite-backed durable storage for the rollcall roster
// and attendance ledger.
//
// The store holds four tables:
//   - people: the roster, keyed by normalised name
//   - attendance: the ledger, UNIQUE(person_name, date)
//   - card_links: badge identifiers bound to a person
//   - sweep_runs: history of completed absence sweeps
//
// # Ledger Idempotency
//
// InsertRecord uses INSERT ... ON CONFLICT(person_name, date) DO NOTHING and
// reports whether a row was written. On conflict it returns the stored row, so
// the first write for a day stays authoritative and later attempts are no-ops.
//
// # Transactions and Contention
//
// All access goes through Update (read-write) or View. Transactions begin
// IMMEDIATE so a read-decide-write unit holds the write lock for its whole
// duration. SQLITE_BUSY and SQLITE_LOCKED surface wrapped in ErrTransient;
// every other failure is returned as is.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: Wait for locks (default 5 seconds)
//   - foreign_keys=ON: Enforce referential integrity
package store
