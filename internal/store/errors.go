package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransient marks contention failures that are safe to retry.
	ErrTransient = errors.New("transient storage error")
)

// IsTransient reports whether err is a retryable contention failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// classify wraps SQLite busy/locked failures in ErrTransient.
func classify(err error) error {
	if err == nil || IsTransient(err) {
		return err
	}
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}
