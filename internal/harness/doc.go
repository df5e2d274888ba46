// Package harness runs attendance scenarios against a real engine.
//
// A scenario names a roster, optionally overrides the policy, and lists
// timed operations with expectations. Each run uses a fresh in-memory
// database, a settable clock and sequential record ids, so the resulting
// trace is reproducible and can be compared against a golden file.
//
// # Scenario Format
//
//	name: drop_after_three_absences
//	description: "Three missed sessions drop a member"
//	policy:
//	  drop_threshold: 3
//	people: [Ada, Grace]
//	cards:
//	  - card: "AA:BB:CC:DD"
//	    person: Ada
//	steps:
//	  - op: record
//	    person: Grace
//	    at: "2026-10-15 12:30:00"
//	    expect:
//	      outcome: recorded
//	      status: present
//	  - op: sweep
//	    date: "2026-10-15"
//	    expect:
//	      absent: 1
//	assertions:
//	  - type: final_state
//	    table: people
//	    where: { name: Ada }
//	    expect: { consecutive_absences: 1 }
//
// Step ops are register, record, scan, sweep, drop, reactivate, reset,
// link and unlink. Step times are "YYYY-MM-DD HH:MM:SS" in the policy
// timezone, which defaults to UTC.
//
// # Assertion Types
//
//   - trace_contains: a step with matching op, person and outcome exists
//   - trace_order: ops appear in the specified order
//   - trace_count: matching steps appear exactly N times
//   - final_state: queries a table and verifies expected values
//
// Dates in where and expect maps must be quoted; unquoted YAML dates decode
// as timestamps.
package harness
