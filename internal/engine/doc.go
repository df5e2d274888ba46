// Package engine implements the attendance state engine.
//
// The engine turns a recognized identity into at most one ledger row per
// person per day, runs the end-of-day absence sweep, and owns the roster
// lifecycle (drop, reactivate, counter resets) and card links.
//
// ARCHITECTURE:
//
// Stateless Units:
// The engine holds no mutable state between calls. Every operation is a
// short read-decide-write unit executed inside one store transaction:
//
// 1. Re-read the person (and the day's ledger row) inside the transaction
// 2. Decide using the immutable policy.Policy
// 3. Claim the (person, date) slot with an insert-if-absent
// 4. Update roster counters only when the insert was fresh
//
// The store's uniqueness constraint is the single serialization point.
// Two callers racing for the same person and day both succeed; exactly one
// writes, the other observes the stored row.
//
// Retry:
// Units that fail with store.ErrTransient are re-run from step 1, up to the
// configured number of attempts, before ErrCodeStorageUnavailable surfaces.
// Misuse errors (unknown person, lifecycle conflicts) are never retried.
//
// Benign Outcomes:
// Events outside the policy window and repeat events for a day already
// recorded are returned as Outcome kinds, never as errors.
package engine
