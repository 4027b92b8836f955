package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/observability"
	"github.com/roach88/treeorder/internal/ordering"
	"github.com/roach88/treeorder/internal/store/memstore"
)

// Harness is the test execution engine.
// It runs one scenario against a fresh in-memory store.
type Harness struct {
	store  *memstore.Store
	engine *ordering.Engine
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Create a fresh in-memory store
// 2. Seed the setup groups
// 3. Execute flow steps, checking each step's expectation
// 4. Evaluate assertions against the final groups
//
// Step failures and assertion failures are reported in the Result; the
// returned error is reserved for setup problems.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st := memstore.New()
	h := &Harness{
		store:  st,
		engine: ordering.New(st, ordering.WithVerify(scenario.Verify)),
	}

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		event, err := h.executeStep(ctx, i+1, step)
		result.Trace = append(result.Trace, event)
		checkStep(result, i, step, event, err)
	}

	groups, err := h.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot final state: %w", err)
	}
	result.Groups = groups

	for i, a := range scenario.Assertions {
		if err := h.evaluateAssertion(ctx, a, result); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}

// executeSetup seeds every group at 0..n-1, followed by its unplaced nodes.
func (h *Harness) executeSetup(ctx context.Context, groups []GroupSpec) error {
	for _, g := range groups {
		for i, id := range g.Nodes {
			n := node.Node{ID: id, ParentID: g.Parent}.At(int64(i))
			if err := h.store.Insert(ctx, n); err != nil {
				return fmt.Errorf("insert %s: %w", id, err)
			}
		}
		for _, id := range g.Unplaced {
			if err := h.store.Insert(ctx, node.Node{ID: id, ParentID: g.Parent}); err != nil {
				return fmt.Errorf("insert %s: %w", id, err)
			}
		}
	}
	h.store.ResetWrites()
	return nil
}

// executeStep runs one operation and records the writes it issued.
func (h *Harness) executeStep(ctx context.Context, seq int, step Step) (TraceEvent, error) {
	h.store.ResetWrites()
	if step.FailAfter != nil {
		h.store.FailAfter(*step.FailAfter, nil)
		// Disarm if the step issued fewer writes than the failure needs.
		defer h.store.FailAfter(-1, nil)
	}

	err := h.dispatch(ctx, step)
	writes := h.store.Writes()

	event := TraceEvent{
		Seq:     seq,
		Op:      step.Op,
		Node:    step.Node,
		Target:  step.Target,
		Outcome: outcomeOf(err, len(writes)),
		Writes:  make([]string, len(writes)),
	}
	for i, w := range writes {
		event.Writes[i] = w.ID + " " + w.Fields.String()
	}

	slog.Debug("scenario step",
		"seq", seq,
		"op", step.Op,
		"node", step.Node,
		"outcome", event.Outcome,
		"writes", len(writes),
	)
	return event, err
}

func (h *Harness) dispatch(ctx context.Context, step Step) error {
	if step.Op == OpInsert {
		n := node.Node{ID: step.Node, ParentID: step.Parent}
		if err := h.store.Insert(ctx, n); err != nil {
			return err
		}
		_, err := h.engine.AssignDefaultPosition(ctx, n, false)
		return err
	}

	n, err := h.store.Get(ctx, step.Node)
	if err != nil {
		return err
	}

	switch step.Op {
	case OpReparent:
		return h.store.Persist(ctx, n.ID, node.ParentField(step.Parent))
	case OpAssignDefault:
		_, err := h.engine.AssignDefaultPosition(ctx, n, step.ParentChanged)
		return err
	case OpMoveUp:
		return h.engine.MoveUp(ctx, n)
	case OpMoveDown:
		return h.engine.MoveDown(ctx, n)
	case OpMoveToTop:
		return h.engine.MoveToTop(ctx, n)
	case OpMoveToBottom:
		return h.engine.MoveToBottom(ctx, n)
	case OpMoveAbove, OpMoveBelow:
		other, err := h.store.Get(ctx, step.Target)
		if err != nil {
			return err
		}
		if step.Op == OpMoveAbove {
			return h.engine.MoveAbove(ctx, n, other)
		}
		return h.engine.MoveBelow(ctx, n, other)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// outcomeOf classifies a step the same way the engine's metrics do.
func outcomeOf(err error, writes int) string {
	switch {
	case ordering.IsPersistenceError(err):
		return observability.OutcomePersistenceError
	case ordering.IsInvariantViolation(err):
		return observability.OutcomeInvariantViolation
	case err != nil:
		return observability.OutcomeError
	case writes == 0:
		return observability.OutcomeNoop
	default:
		return observability.OutcomeApplied
	}
}

// checkStep compares a step's outcome against its expect clause.
func checkStep(result *Result, index int, step Step, event TraceEvent, err error) {
	if step.Expect == nil {
		if err != nil {
			result.AddError(fmt.Sprintf("flow[%d] %s %s: %v", index, step.Op, step.Node, err))
		}
		return
	}

	if event.Outcome != step.Expect.Outcome {
		msg := fmt.Sprintf("flow[%d] %s %s: expected outcome %s, got %s",
			index, step.Op, step.Node, step.Expect.Outcome, event.Outcome)
		if err != nil {
			msg += fmt.Sprintf(" (%v)", err)
		}
		result.AddError(msg)
	}

	if step.Expect.Writes != nil && *step.Expect.Writes != len(event.Writes) {
		result.AddError(fmt.Sprintf("flow[%d] %s %s: expected %d writes, got %d %v",
			index, step.Op, step.Node, *step.Expect.Writes, len(event.Writes), event.Writes))
	}
}

// snapshot renders every group in the store.
func (h *Harness) snapshot(ctx context.Context) ([]GroupState, error) {
	parents, err := h.store.Parents(ctx)
	if err != nil {
		return nil, err
	}

	groups := make([]GroupState, 0, len(parents))
	for _, p := range parents {
		children, err := h.store.Children(ctx, p)
		if err != nil {
			return nil, err
		}
		groups = append(groups, GroupState{Parent: p, Nodes: render(children)})
	}
	return groups, nil
}

func render(nodes []node.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		if n.Placed {
			out[i] = fmt.Sprintf("%s:%d", n.ID, n.Position)
		} else {
			out[i] = n.ID + ":-"
		}
	}
	return out
}
