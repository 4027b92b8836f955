package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/treeorder/internal/node"
)

// AssertionError is returned when an assertion fails.
// It includes the final groups to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Groups   []GroupState // Final state for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFinal groups:\n")
	for _, g := range e.Groups {
		fmt.Fprintf(&buf, "  %s: %s\n", parentLabel(g.Parent), strings.Join(g.Nodes, " "))
	}

	return buf.String()
}

// evaluateAssertion dispatches on the assertion type.
func (h *Harness) evaluateAssertion(ctx context.Context, a Assertion, result *Result) error {
	switch a.Type {
	case AssertGroup:
		return assertGroup(a, result)
	case AssertPosition:
		return h.assertPosition(ctx, a, result)
	case AssertContiguous:
		return h.assertContiguous(ctx, result)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertGroup checks that the group lists exactly Order at 0..n-1.
func assertGroup(a Assertion, result *Result) error {
	want := make([]string, len(a.Order))
	for i, id := range a.Order {
		want[i] = fmt.Sprintf("%s:%d", id, i)
	}

	got, _ := result.Group(a.Parent)
	if strings.Join(got.Nodes, " ") == strings.Join(want, " ") {
		return nil
	}

	return &AssertionError{
		Type:     AssertGroup,
		Expected: fmt.Sprintf("%s = [%s]", parentLabel(a.Parent), strings.Join(want, " ")),
		Actual:   fmt.Sprintf("%s = [%s]", parentLabel(a.Parent), strings.Join(got.Nodes, " ")),
		Groups:   result.Groups,
	}
}

// assertPosition checks one node's position, and its parent when given.
func (h *Harness) assertPosition(ctx context.Context, a Assertion, result *Result) error {
	n, err := h.store.Get(ctx, a.Node)
	if err != nil {
		return fmt.Errorf("load %s: %w", a.Node, err)
	}

	parentOK := a.Parent == "" || n.ParentID == a.Parent
	if parentOK && n.Placed && n.Position == *a.Position {
		return nil
	}

	expected := fmt.Sprintf("%s at %d", a.Node, *a.Position)
	if a.Parent != "" {
		expected += " under " + a.Parent
	}
	return &AssertionError{
		Type:     AssertPosition,
		Expected: expected,
		Actual:   n.String(),
		Groups:   result.Groups,
	}
}

// assertContiguous checks every group for positions 0..n-1.
func (h *Harness) assertContiguous(ctx context.Context, result *Result) error {
	for _, g := range result.Groups {
		children, err := h.store.Children(ctx, g.Parent)
		if err != nil {
			return err
		}
		if err := node.CheckContiguous(g.Parent, children); err != nil {
			return &AssertionError{
				Type:     AssertContiguous,
				Expected: "every group at 0..n-1",
				Actual:   err.Error(),
				Groups:   result.Groups,
			}
		}
	}
	return nil
}

func parentLabel(parent string) string {
	if parent == "" {
		return "<root>"
	}
	return parent
}
