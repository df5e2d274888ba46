package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rollcall/internal/config"
)

// Scenario defines an attendance test scenario: a roster, a sequence of
// timed operations with expectations, and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy overrides the default policy. Omitted fields keep their
	// defaults; the timezone defaults to UTC rather than Local.
	Policy *config.PolicyConfig `yaml:"policy,omitempty"`

	// People are registered, active with zero counters, before any step.
	People []string `yaml:"people"`

	// Cards are linked after People are registered.
	Cards []CardSetup `yaml:"cards,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// CardSetup links a card before the steps run.
type CardSetup struct {
	Card   string `yaml:"card"`
	Person string `yaml:"person"`
}

// Step is one engine operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	Person  string `yaml:"person,omitempty"`
	Channel string `yaml:"channel,omitempty"` // record only; defaults to "face"
	Card    string `yaml:"card,omitempty"`
	Date    string `yaml:"date,omitempty"`    // sweep only
	Counter string `yaml:"counter,omitempty"` // reset only; defaults to "both"

	// At is the event time, "YYYY-MM-DD HH:MM:SS" in the policy timezone.
	// Required for record and scan. When set, the scenario clock moves to At
	// before the step runs.
	At string `yaml:"at,omitempty"`

	// Expect validates the step's result. If nil, the step must not fail.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpRegister   = "register"
	OpRecord     = "record"
	OpScan       = "scan"
	OpSweep      = "sweep"
	OpDrop       = "drop"
	OpReactivate = "reactivate"
	OpReset      = "reset"
	OpLink       = "link"
	OpUnlink     = "unlink"
)

// ExpectClause specifies expected step behavior. Only set fields are checked.
type ExpectClause struct {
	// Outcome is the expected outcome kind for record and scan steps.
	Outcome string `yaml:"outcome,omitempty"`

	// Status is the expected returned status for record and scan steps.
	Status string `yaml:"status,omitempty"`

	// Error is the expected engine error code, e.g. UNKNOWN_PERSON.
	Error string `yaml:"error,omitempty"`

	// Absent and Dropped are the expected counts for sweep steps.
	Absent  *int `yaml:"absent,omitempty"`
	Dropped *int `yaml:"dropped,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a step with matching op/person/outcome exists
	// - "trace_order": ops appear in order
	// - "trace_count": op appears exactly Count times
	// - "final_state": query a table and verify expected values
	Type string `yaml:"type"`

	// Op, Person and Outcome filter trace events (trace_contains, trace_count).
	Op      string `yaml:"op,omitempty"`
	Person  string `yaml:"person,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`

	// Table is the state table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Ops is the expected op order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml and *.yml scenario in dir, ordered by
// file name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks required fields and per-op arguments.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, c := range s.Cards {
		if c.Card == "" || c.Person == "" {
			return fmt.Errorf("cards[%d]: card and person are required", i)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("steps[%d]: %s is required for %s", index, field, step.Op)
		}
		return nil
	}

	var err error
	switch step.Op {
	case OpRegister, OpDrop, OpReactivate:
		err = need("person", step.Person)
	case OpReset:
	case OpRecord:
		if err = need("person", step.Person); err == nil {
			err = need("at", step.At)
		}
	case OpScan:
		if err = need("card", step.Card); err == nil {
			err = need("at", step.At)
		}
	case OpSweep:
		err = need("date", step.Date)
	case OpLink:
		if err = need("card", step.Card); err == nil {
			err = need("person", step.Person)
		}
	case OpUnlink:
		err = need("card", step.Card)
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	return err
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
