package engine

import (
	"errors"
	"fmt"
)

// Error represents a failure reported by an engine operation.
//
// Errors include:
//   - Misuse: unknown person, lifecycle conflicts, card conflicts
//   - Storage: contention that outlived the retry budget
//   - Configuration: a policy that fails validation at construction
//
// Benign outcomes (outside the policy window, already recorded today) are
// never reported as Error; see OutcomeKind.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Person is the roster name involved, if any.
	Person string

	// Card is the card identifier involved, if any.
	Card string

	// Other is the conflicting person for ErrCodeCardAlreadyLinked.
	Other string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUnknownPerson indicates the name is not on the roster.
	ErrCodeUnknownPerson ErrorCode = "UNKNOWN_PERSON"

	// ErrCodeInactivePerson indicates a dropped person was recognized.
	ErrCodeInactivePerson ErrorCode = "INACTIVE_PERSON"

	// ErrCodeNotDropped indicates reactivation of a person who is active.
	ErrCodeNotDropped ErrorCode = "NOT_DROPPED"

	// ErrCodeAlreadyDropped indicates a manual drop of a dropped person.
	ErrCodeAlreadyDropped ErrorCode = "ALREADY_DROPPED"

	// ErrCodeCardAlreadyLinked indicates the card is bound to someone else.
	ErrCodeCardAlreadyLinked ErrorCode = "CARD_ALREADY_LINKED"

	// ErrCodeCardNotFound indicates no active link exists for the card.
	ErrCodeCardNotFound ErrorCode = "CARD_NOT_FOUND"

	// ErrCodePersonExists indicates registration of a name already on the roster.
	ErrCodePersonExists ErrorCode = "PERSON_EXISTS"

	// ErrCodeStorageUnavailable indicates retries were exhausted.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	// ErrCodeInvalidPolicy indicates the policy failed validation.
	ErrCodeInvalidPolicy ErrorCode = "INVALID_POLICY"

	// ErrCodeInvalidArgument indicates a malformed name, date, channel or selector.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Other != "" && e.Card != "":
		return fmt.Sprintf("%s: %s (card=%s, person=%s)", e.Code, e.Message, e.Card, e.Other)
	case e.Card != "":
		return fmt.Sprintf("%s: %s (card=%s)", e.Code, e.Message, e.Card)
	case e.Person != "":
		return fmt.Sprintf("%s: %s (person=%s)", e.Code, e.Message, e.Person)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUnknownPerson returns true if the name was not on the roster.
func IsUnknownPerson(err error) bool { return CodeOf(err) == ErrCodeUnknownPerson }

// IsInactivePerson returns true if the person is dropped.
func IsInactivePerson(err error) bool { return CodeOf(err) == ErrCodeInactivePerson }

// IsNotDropped returns true if reactivation targeted an active person.
func IsNotDropped(err error) bool { return CodeOf(err) == ErrCodeNotDropped }

// IsAlreadyDropped returns true if a manual drop targeted a dropped person.
func IsAlreadyDropped(err error) bool { return CodeOf(err) == ErrCodeAlreadyDropped }

// IsCardAlreadyLinked returns true if the card belongs to another person.
func IsCardAlreadyLinked(err error) bool { return CodeOf(err) == ErrCodeCardAlreadyLinked }

// IsCardNotFound returns true if the card has no active link.
func IsCardNotFound(err error) bool { return CodeOf(err) == ErrCodeCardNotFound }

// IsStorageUnavailable returns true if the store stayed unavailable after retries.
func IsStorageUnavailable(err error) bool { return CodeOf(err) == ErrCodeStorageUnavailable }

func unknownPerson(name string) *Error {
	return &Error{Code: ErrCodeUnknownPerson, Message: "person is not on the roster", Person: name}
}

func inactivePerson(name string) *Error {
	return &Error{Code: ErrCodeInactivePerson, Message: "person is dropped and cannot be recorded", Person: name}
}

func invalidArgument(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func cardNotFound(cardID string) *Error {
	return &Error{Code: ErrCodeCardNotFound, Message: "no active link for card", Card: cardID}
}
