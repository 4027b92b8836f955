package node

import "fmt"

// ContiguityError describes a sibling group whose positions are not exactly
// {0, 1, ..., n-1}.
type ContiguityError struct {
	ParentID  string
	Positions []int64
	Reason    string
}

func (e *ContiguityError) Error() string {
	parent := e.ParentID
	if parent == "" {
		parent = "<root>"
	}
	return fmt.Sprintf("sibling group %s not contiguous: %s (positions=%v)", parent, e.Reason, e.Positions)
}

// Positions returns the positions of the placed nodes in slice order.
func Positions(nodes []Node) []int64 {
	out := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		if n.Placed {
			out = append(out, n.Position)
		}
	}
	return out
}

// MaxPosition returns the largest placed position in nodes.
// ok is false when no node is placed.
func MaxPosition(nodes []Node) (top int64, ok bool) {
	for _, n := range nodes {
		if !n.Placed {
			continue
		}
		if !ok || n.Position > top {
			top = n.Position
			ok = true
		}
	}
	return top, ok
}

// CheckContiguous verifies that the given sibling group holds every position
// in 0..len(group)-1 exactly once. The group need not be sorted.
func CheckContiguous(parentID string, group []Node) error {
	seen := make([]bool, len(group))
	positions := make([]int64, len(group))
	for i, n := range group {
		positions[i] = n.Position
	}

	for _, n := range group {
		if !n.Placed {
			return &ContiguityError{ParentID: parentID, Positions: positions, Reason: fmt.Sprintf("%s has no position", n.ID)}
		}
		if n.Position < 0 || n.Position >= int64(len(group)) {
			return &ContiguityError{ParentID: parentID, Positions: positions, Reason: fmt.Sprintf("%s at %d is out of range", n.ID, n.Position)}
		}
		if seen[n.Position] {
			return &ContiguityError{ParentID: parentID, Positions: positions, Reason: fmt.Sprintf("position %d is duplicated", n.Position)}
		}
		seen[n.Position] = true
	}
	return nil
}
