package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/policy"
	"github.com/roach88/rollcall/internal/store"
	"github.com/roach88/rollcall/internal/testutil"
)

// Dates used throughout: 2026-10-15 is a Thursday, 2026-10-14 a Wednesday.
const (
	today     = "2026-10-15"
	wednesday = "2026-10-14"
)

// on returns the UTC instant at hh:mm:ss on date.
func on(date string, hh, mm, ss int) time.Time {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(ss)*time.Second)
}

var registeredAt = on("2026-10-01", 9, 0, 0)

// testPolicy is the default policy pinned to UTC.
func testPolicy() policy.Policy {
	p := policy.Default()
	p.Location = time.UTC
	return p
}

// setupTestStore opens a file-backed store in a temp dir.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type testEnv struct {
	engine *Engine
	store  *store.Store
	clock  *testutil.Clock
	flaky  *flakyBackend
}

// newTestEnv wires an engine over a flaky wrapper around a real store. The
// wrapper passes everything through until a failure hook is installed.
func newTestEnv(t *testing.T, p policy.Policy, opts ...Option) *testEnv {
	t.Helper()
	s := setupTestStore(t)
	flaky := &flakyBackend{Backend: s}
	clock := testutil.NewClock(on(today, 18, 0, 0))

	base := []Option{
		WithClock(clock),
		WithIDGenerator(testutil.NewSequentialIDs("id")),
		WithRetry(Retry{MaxAttempts: 3, Backoff: time.Millisecond}),
	}
	e, err := New(flaky, p, append(base, opts...)...)
	require.NoError(t, err)
	return &testEnv{engine: e, store: s, clock: clock, flaky: flaky}
}

func (env *testEnv) register(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := env.engine.RegisterPerson(context.Background(), name, "", registeredAt)
		require.NoError(t, err)
	}
}

func (env *testEnv) person(t *testing.T, name string) model.Person {
	t.Helper()
	p, err := env.engine.Person(context.Background(), name)
	require.NoError(t, err)
	return p
}

func (env *testEnv) records(t *testing.T, date string) []model.Record {
	t.Helper()
	report, err := env.engine.DayReport(context.Background(), date)
	require.NoError(t, err)
	return report.Records
}

// errBusy is what the store reports for SQLITE_BUSY after classification.
var errBusy = fmt.Errorf("begin tx: %w", store.ErrTransient)

// flakyBackend injects failures into Update calls.
type flakyBackend struct {
	store.Backend

	mu      sync.Mutex
	updates int
	fail    func(call int) error
}

// failWith installs hook and restarts the call count at zero. hook receives
// the 1-based call number; a non-nil result fails that call without running it.
func (f *flakyBackend) failWith(hook func(call int) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = 0
	f.fail = hook
}

func (f *flakyBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func (f *flakyBackend) Update(ctx context.Context, fn func(store.Tx) error) error {
	f.mu.Lock()
	f.updates++
	call, hook := f.updates, f.fail
	f.mu.Unlock()

	if hook != nil {
		if err := hook(call); err != nil {
			return err
		}
	}
	return f.Backend.Update(ctx, fn)
}
