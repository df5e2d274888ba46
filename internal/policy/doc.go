// Package policy decides when attendance may be taken and what status a
// moment in time earns.
//
// A Policy is pure: it holds the attendance windows, the allowed weekdays,
// the location used to derive civil dates and the drop rule. Construct it
// with New (or validate a literal with Validate) so that misordered windows
// are rejected at startup rather than misclassifying events at call time.
//
// Window boundaries, in ascending order:
//
//	[PresentStart, PresentEnd) -> present
//	[PresentEnd,   LateEnd]    -> late
//
// Anything else, or any moment on a weekday not in AllowedDays, is outside
// the policy window.
package policy
