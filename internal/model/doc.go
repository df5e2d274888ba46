// Package model provides the attendance domain types shared by every rollcall package.
//
// This package contains type definitions and small pure helpers only. All other
// internal packages import model; model imports nothing internal.
//
// Key constraints:
//   - A person is identified by its normalised name (see NormalizeName)
//   - Dates are civil dates in the policy location, formatted with DateLayout
//   - All JSON tags use snake_case
package model
