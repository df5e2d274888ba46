package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/policy"
)

func TestScenarios_Pass(t *testing.T) {
	scenarios, err := LoadScenarioDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(s.Steps))
		})
	}
}

func TestScenarios_Golden(t *testing.T) {
	for _, name := range []string{
		"present_then_duplicate",
		"drop_after_three_absences",
		"card_scan",
	} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/drop_after_three_absences.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, first.Trace, second.Trace)
}

func intp(n int) *int { return &n }

func TestRun_ReportsMismatches(t *testing.T) {
	s := &Scenario{
		Name:   "mismatch",
		People: []string{"Ada"},
		Steps: []Step{
			{Op: OpRecord, Person: "Ada", At: "2026-10-15 12:40:00",
				Expect: &ExpectClause{Outcome: "recorded", Status: "present"}},
			{Op: OpDrop, Person: "Ada"},
			{Op: OpDrop, Person: "Ada"},
			{Op: OpSweep, Date: "2026-10-15", Expect: &ExpectClause{Absent: intp(1)}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Op: OpDrop, Count: 1},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, `step 0 (record): expected status "present", got "late"`, result.Errors[0])
	assert.Equal(t, "step 2 (drop): unexpected error ALREADY_DROPPED", result.Errors[1])
	assert.Equal(t, "step 3 (sweep): expected 1 absent, got 0 []", result.Errors[2])
	assert.Contains(t, result.Errors[3], "2 occurrences")
}

func TestRun_InvalidAt(t *testing.T) {
	s := &Scenario{
		Name:   "bad_at",
		People: []string{"Ada"},
		Steps:  []Step{{Op: OpRecord, Person: "Ada", At: "15/10/2026"}},
	}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid at")
}

func TestRun_SetupFailure(t *testing.T) {
	s := &Scenario{
		Name:   "bad_card",
		People: []string{"Ada"},
		Cards:  []CardSetup{{Card: "AA", Person: "Nobody"}},
		Steps:  []Step{{Op: OpSweep, Date: "2026-10-15"}},
	}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link card")
}

func TestScenarioPolicy(t *testing.T) {
	p, err := ScenarioPolicy(&Scenario{Name: "defaults"})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, p.Location)
	assert.Equal(t, policy.DropOnConsecutive, p.DropOn)
	assert.Equal(t, policy.Clock3(12, 20, 0), p.PresentStart)

	p, err = ScenarioPolicy(&Scenario{Name: "override", Policy: &config.PolicyConfig{
		LateEnd:     "14:00",
		AllowedDays: []string{"wednesday"},
		DropOn:      "total",
	}})
	require.NoError(t, err)
	assert.Equal(t, policy.Clock3(14, 0, 0), p.LateEnd)
	assert.Equal(t, []time.Weekday{time.Wednesday}, p.AllowedDays)
	assert.Equal(t, policy.DropOnTotal, p.DropOn)
	assert.Equal(t, 3, p.DropThreshold)

	_, err = ScenarioPolicy(&Scenario{Name: "broken", Policy: &config.PolicyConfig{PresentEnd: "12:00"}})
	require.ErrorIs(t, err, policy.ErrInvalid)
	assert.Contains(t, err.Error(), "scenario broken")
}
