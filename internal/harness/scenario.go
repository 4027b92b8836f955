package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/treeorder/internal/node"
)

// Scenario defines an ordering test scenario: initial sibling groups, a
// flow of engine operations, and assertions on the final positions.
type Scenario struct {
	// Name uniquely identifies this scenario; also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Verify runs the engine with contiguity checks before and after every
	// move.
	Verify bool `yaml:"verify,omitempty"`

	// Setup lists the initial groups. Nodes are stored at 0..n-1 in the
	// listed order; unplaced nodes are stored without a position.
	Setup []GroupSpec `yaml:"setup,omitempty"`

	// Flow contains the operations to run, in order.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// GroupSpec seeds one sibling group.
type GroupSpec struct {
	Parent   string   `yaml:"parent,omitempty"` // "" for roots
	Nodes    []string `yaml:"nodes"`
	Unplaced []string `yaml:"unplaced,omitempty"`
}

// Step is one operation in the flow.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Node is the node being inserted, re-parented or moved.
	Node string `yaml:"node"`

	// Target is the reference node of move_above and move_below.
	Target string `yaml:"target,omitempty"`

	// Parent is the new parent for insert and reparent.
	Parent string `yaml:"parent,omitempty"`

	// ParentChanged is passed to assign_default.
	ParentChanged bool `yaml:"parent_changed,omitempty"`

	// FailAfter makes the persist following this many successful writes
	// fail during this step.
	FailAfter *int `yaml:"fail_after,omitempty"`

	// Expect checks the step's outcome. If nil, the step must not fail.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected step outcome.
type ExpectClause struct {
	// Outcome is applied, noop, persistence_error, invariant_violation or error.
	Outcome string `yaml:"outcome"`

	// Writes is the expected number of persisted writes, if set.
	Writes *int `yaml:"writes,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "group": the group under Parent lists exactly Order at 0..n-1
	// - "position": Node sits at Position (under Parent, when given)
	// - "contiguous": every group in the store is 0..n-1
	Type string `yaml:"type"`

	Parent   string   `yaml:"parent,omitempty"`
	Order    []string `yaml:"order,omitempty"`
	Node     string   `yaml:"node,omitempty"`
	Position *int64   `yaml:"position,omitempty"`
}

// Step operations.
const (
	OpInsert        = "insert"
	OpReparent      = "reparent"
	OpAssignDefault = "assign_default"
	OpMoveUp        = "move_up"
	OpMoveDown      = "move_down"
	OpMoveToTop     = "move_to_top"
	OpMoveToBottom  = "move_to_bottom"
	OpMoveAbove     = "move_above"
	OpMoveBelow     = "move_below"
)

// Assertion type constants.
const (
	AssertGroup      = "group"
	AssertPosition   = "position"
	AssertContiguous = "contiguous"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails schema validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. IDs are normalized to NFC.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	scenario.normalize()

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// normalize applies node.NormalizeID to every ID in the scenario.
func (s *Scenario) normalize() {
	for i := range s.Setup {
		g := &s.Setup[i]
		g.Parent = node.NormalizeID(g.Parent)
		for j := range g.Nodes {
			g.Nodes[j] = node.NormalizeID(g.Nodes[j])
		}
		for j := range g.Unplaced {
			g.Unplaced[j] = node.NormalizeID(g.Unplaced[j])
		}
	}
	for i := range s.Flow {
		st := &s.Flow[i]
		st.Node = node.NormalizeID(st.Node)
		st.Target = node.NormalizeID(st.Target)
		st.Parent = node.NormalizeID(st.Parent)
	}
	for i := range s.Assertions {
		a := &s.Assertions[i]
		a.Parent = node.NormalizeID(a.Parent)
		a.Node = node.NormalizeID(a.Node)
		for j := range a.Order {
			a.Order[j] = node.NormalizeID(a.Order[j])
		}
	}
}

// validateScenario checks references the schema cannot express: unique
// setup IDs, and steps naming nodes that exist by the time they run.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	known := make(map[string]bool)
	for i, g := range s.Setup {
		for _, id := range append(append([]string{}, g.Nodes...), g.Unplaced...) {
			if known[id] {
				return fmt.Errorf("setup[%d]: duplicate node %q", i, id)
			}
			known[id] = true
		}
	}

	for i, step := range s.Flow {
		switch step.Op {
		case OpInsert:
			if known[step.Node] {
				return fmt.Errorf("flow[%d]: node %q already exists", i, step.Node)
			}
			known[step.Node] = true
			continue
		case OpMoveAbove, OpMoveBelow:
			if !known[step.Target] {
				return fmt.Errorf("flow[%d]: unknown target %q", i, step.Target)
			}
		}
		if !known[step.Node] {
			return fmt.Errorf("flow[%d]: unknown node %q", i, step.Node)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertGroup, AssertContiguous:
	case AssertPosition:
		if a.Node == "" || a.Position == nil {
			return fmt.Errorf("assertions[%d]: node and position are required for position", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
