package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/policy"
	"github.com/roach88/rollcall/internal/store"
)

// Engine applies the attendance policy to the roster and ledger held by a
// store.Backend. It is safe for concurrent use; all coordination happens in
// the store.
type Engine struct {
	backend store.Backend
	policy  policy.Policy
	logger  *slog.Logger
	clock   policy.Clock
	ids     IDGenerator
	retry   Retry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the clock used for bookkeeping timestamps (sweep runs and
// absent rows). Event times are always passed in by the caller.
func WithClock(c policy.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the generator for ledger and sweep run ids.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithRetry sets the retry budget for transient storage failures.
//
// Default: DefaultRetry (3 attempts, 250ms linear backoff).
// Use WithRetry(Retry{MaxAttempts: 1}) to surface contention immediately.
func WithRetry(r Retry) Option {
	return func(e *Engine) {
		e.retry = r
	}
}

// New creates an Engine over backend using policy p.
//
// p is validated here so that a misordered window fails at startup with
// ErrCodeInvalidPolicy instead of misclassifying events later.
func New(backend store.Backend, p policy.Policy, opts ...Option) (*Engine, error) {
	validated, err := policy.New(p)
	if err != nil {
		return nil, &Error{Code: ErrCodeInvalidPolicy, Message: err.Error(), Err: err}
	}

	e := &Engine{
		backend: backend,
		policy:  validated,
		logger:  slog.Default(),
		clock:   policy.SystemClock{},
		ids:     UUIDv7Generator{},
		retry:   DefaultRetry,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.backend == nil {
		return nil, invalidArgument("store backend is required")
	}
	if e.retry.MaxAttempts < 1 {
		return nil, invalidArgument("retry attempts must be at least 1, got %d", e.retry.MaxAttempts)
	}
	if e.retry.Backoff < 0 {
		return nil, invalidArgument("retry backoff must not be negative")
	}
	return e, nil
}

// Policy returns the validated policy the engine applies.
func (e *Engine) Policy() policy.Policy {
	return e.policy
}

// update runs fn in a read-write transaction under the retry budget.
// fn must assign, never accumulate, its results: it may run more than once.
func (e *Engine) update(ctx context.Context, op string, fn func(store.Tx) error) error {
	return withRetry(ctx, e.retry, e.logger, op, func() error {
		return e.backend.Update(ctx, fn)
	})
}

// view runs fn in a read-only transaction under the retry budget.
func (e *Engine) view(ctx context.Context, op string, fn func(store.Tx) error) error {
	return withRetry(ctx, e.retry, e.logger, op, func() error {
		return e.backend.View(ctx, fn)
	})
}

// loadPerson reads name inside tx, mapping a missing row to ErrCodeUnknownPerson.
func loadPerson(ctx context.Context, tx store.Tx, name string) (model.Person, error) {
	p, err := tx.Person(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return model.Person{}, unknownPerson(name)
	}
	return p, err
}

// normalizeName cleans a caller-supplied name and rejects empty input.
func normalizeName(name string) (string, error) {
	n := model.NormalizeName(name)
	if n == "" {
		return "", invalidArgument("person name is required")
	}
	return n, nil
}

// parseDate validates a civil date in the policy location.
func (e *Engine) parseDate(date string) error {
	if _, err := model.ParseDate(date, e.policy.Location); err != nil {
		return &Error{Code: ErrCodeInvalidArgument, Message: err.Error(), Err: err}
	}
	return nil
}
