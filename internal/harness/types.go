package harness

// TraceEvent records what one scenario step did.
type TraceEvent struct {
	Step    int      `json:"step"`
	Op      string   `json:"op"`
	Person  string   `json:"person,omitempty"`
	Card    string   `json:"card,omitempty"`
	Date    string   `json:"date,omitempty"`
	At      string   `json:"at,omitempty"`
	Outcome string   `json:"outcome,omitempty"`
	Status  string   `json:"status,omitempty"`
	Error   string   `json:"error,omitempty"`
	Absent  []string `json:"absent,omitempty"`
	Dropped []string `json:"dropped,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends ev to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
