package harness

// TraceEvent records one executed flow step.
type TraceEvent struct {
	Seq     int      `json:"seq"`
	Op      string   `json:"op"`
	Node    string   `json:"node"`
	Target  string   `json:"target,omitempty"`
	Outcome string   `json:"outcome"`
	Writes  []string `json:"writes"` // "<id> <fields>" in persist order
}

// GroupState is one sibling group after the flow, rendered as "ID:position"
// ("ID:-" when unplaced).
type GroupState struct {
	Parent string   `json:"parent"`
	Nodes  []string `json:"nodes"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step met its expectation and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Groups is the final state of every sibling group, sorted by parent.
	Groups []GroupState `json:"groups"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Groups: []GroupState{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Group returns the final state of the group under parent.
func (r *Result) Group(parent string) (GroupState, bool) {
	for _, g := range r.Groups {
		if g.Parent == parent {
			return g, true
		}
	}
	return GroupState{}, false
}
