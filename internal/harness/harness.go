package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/policy"
	"github.com/roach88/rollcall/internal/store"
	"github.com/roach88/rollcall/internal/testutil"
)

// AtLayout is the format of Step.At.
const AtLayout = "2006-01-02 15:04:05"

// SetupTime is the clock reading used to register the roster and link cards.
var SetupTime = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// Harness is the test execution engine.
// It runs scenarios against a real engine with a deterministic clock and
// sequential record ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	policy policy.Policy
	clock  *testutil.Clock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Build the scenario policy and engine
// 3. Register people and link cards
// 4. Execute steps with expect validation
// 5. Evaluate assertions and return the result
//
// Mismatched expectations are reported in Result.Errors. The returned error
// is reserved for failures of the harness itself.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	pol, err := ScenarioPolicy(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewClock(SetupTime)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	eng, err := engine.New(st, pol,
		engine.WithClock(clock),
		engine.WithIDGenerator(testutil.NewSequentialIDs("rec")),
		engine.WithLogger(logger),
		engine.WithRetry(engine.Retry{MaxAttempts: 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	h := &Harness{
		store:  st,
		engine: eng,
		policy: eng.Policy(),
		clock:  clock,
		logger: logger,
	}

	if err := h.setup(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, err
		}
	}

	actx := &AssertionContext{
		DB:  st.DB(),
		Ctx: ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// ScenarioPolicy overlays the scenario's policy fields on the defaults.
// The timezone defaults to UTC so scenario times are unambiguous.
func ScenarioPolicy(scenario *Scenario) (policy.Policy, error) {
	f := config.Default()
	f.Policy.Timezone = "UTC"
	if o := scenario.Policy; o != nil {
		overlay := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		overlay(&f.Policy.PresentStart, o.PresentStart)
		overlay(&f.Policy.PresentEnd, o.PresentEnd)
		overlay(&f.Policy.LateEnd, o.LateEnd)
		overlay(&f.Policy.Timezone, o.Timezone)
		overlay(&f.Policy.DropOn, o.DropOn)
		if len(o.AllowedDays) > 0 {
			f.Policy.AllowedDays = o.AllowedDays
		}
		if o.DropThreshold != 0 {
			f.Policy.DropThreshold = o.DropThreshold
		}
	}
	p, err := f.BuildPolicy()
	if err != nil {
		return policy.Policy{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return p, nil
}

// setup registers the roster and links cards at SetupTime.
func (h *Harness) setup(ctx context.Context, scenario *Scenario) error {
	for _, name := range scenario.People {
		if _, err := h.engine.RegisterPerson(ctx, name, "", SetupTime); err != nil {
			return fmt.Errorf("register %q: %w", name, err)
		}
	}
	for _, c := range scenario.Cards {
		if _, err := h.engine.LinkCard(ctx, c.Card, c.Person, SetupTime); err != nil {
			return fmt.Errorf("link card %q: %w", c.Card, err)
		}
	}
	return nil
}

// executeStep runs one step, appends its trace event and checks its
// expect clause.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	if step.At != "" {
		at, err := time.ParseInLocation(AtLayout, step.At, h.policy.Location)
		if err != nil {
			return fmt.Errorf("step %d: invalid at %q: %w", index, step.At, err)
		}
		h.clock.Set(at)
	}
	now := h.clock.Now()

	ev := TraceEvent{
		Step:   index,
		Op:     step.Op,
		Person: step.Person,
		Card:   model.NormalizeCardID(step.Card),
		At:     step.At,
	}

	var err error
	switch step.Op {
	case OpRecord:
		channel := model.Channel(step.Channel)
		if channel == "" {
			channel = model.ChannelFace
		}
		var out engine.Outcome
		out, err = h.engine.RecordAttendance(ctx, step.Person, channel, now)
		ev.applyOutcome(out)
	case OpScan:
		var out engine.Outcome
		out, err = h.engine.RecordCardScan(ctx, step.Card, now)
		ev.applyOutcome(out)
	case OpSweep:
		var rep model.SweepReport
		rep, err = h.engine.SweepAbsences(ctx, step.Date)
		ev.Date = step.Date
		ev.Absent = rep.Absent
		ev.Dropped = rep.Dropped
	case OpRegister:
		_, err = h.engine.RegisterPerson(ctx, step.Person, "", now)
	case OpDrop:
		_, err = h.engine.Drop(ctx, step.Person, now)
	case OpReactivate:
		_, err = h.engine.Reactivate(ctx, step.Person, now)
	case OpReset:
		counter := model.Counter(step.Counter)
		if counter == "" {
			counter = model.CounterBoth
		}
		_, err = h.engine.ResetCounters(ctx, step.Person, counter, now)
	case OpLink:
		_, err = h.engine.LinkCard(ctx, step.Card, step.Person, now)
	case OpUnlink:
		_, err = h.engine.UnlinkCard(ctx, step.Card)
	default:
		return fmt.Errorf("step %d: unknown op %q", index, step.Op)
	}

	if err != nil {
		code := engine.CodeOf(err)
		if code == "" {
			// Not an engine outcome; the harness cannot continue meaningfully.
			return fmt.Errorf("step %d (%s): %w", index, step.Op, err)
		}
		ev.Error = string(code)
	}

	result.AddTrace(ev)
	h.logger.Debug("step completed", "step", index, "op", step.Op, "error", ev.Error)

	for _, msg := range checkExpect(step, ev) {
		result.AddError(fmt.Sprintf("step %d (%s): %s", index, step.Op, msg))
	}
	return nil
}

func (ev *TraceEvent) applyOutcome(out engine.Outcome) {
	if out.Kind == "" {
		return
	}
	ev.Person = out.Person
	ev.Date = out.Date
	ev.Outcome = string(out.Kind)
	ev.Status = string(out.Status)
}

// checkExpect compares ev with step.Expect and returns one message per
// mismatch. A step without an expect clause must not fail.
func checkExpect(step Step, ev TraceEvent) []string {
	exp := step.Expect
	if exp == nil {
		if ev.Error != "" {
			return []string{fmt.Sprintf("unexpected error %s", ev.Error)}
		}
		return nil
	}

	var msgs []string
	mismatch := func(field, want, got string) {
		if want != "" && want != got {
			msgs = append(msgs, fmt.Sprintf("expected %s %q, got %q", field, want, got))
		}
	}
	if exp.Error == "" && ev.Error != "" {
		msgs = append(msgs, fmt.Sprintf("unexpected error %s", ev.Error))
	}
	mismatch("error", exp.Error, ev.Error)
	mismatch("outcome", exp.Outcome, ev.Outcome)
	mismatch("status", exp.Status, ev.Status)
	if exp.Absent != nil && *exp.Absent != len(ev.Absent) {
		msgs = append(msgs, fmt.Sprintf("expected %d absent, got %d %v", *exp.Absent, len(ev.Absent), ev.Absent))
	}
	if exp.Dropped != nil && *exp.Dropped != len(ev.Dropped) {
		msgs = append(msgs, fmt.Sprintf("expected %d dropped, got %d %v", *exp.Dropped, len(ev.Dropped), ev.Dropped))
	}
	return msgs
}
