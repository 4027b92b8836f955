package node

import (
	"fmt"
	"sort"
)

// Node is one record participating in the ordered hierarchy.
type Node struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"` // "" for roots
	Position int64  `json:"position"`
	Placed   bool   `json:"placed"` // false while position is unset
	Label    string `json:"label,omitempty"`
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == ""
}

// SiblingOf reports whether n and other belong to the same sibling group.
// A node is not its own sibling.
func (n Node) SiblingOf(other Node) bool {
	return n.ID != other.ID && n.ParentID == other.ParentID
}

// At returns a copy of n placed at position p.
func (n Node) At(p int64) Node {
	n.Position = p
	n.Placed = true
	return n
}

func (n Node) String() string {
	parent := n.ParentID
	if parent == "" {
		parent = "<root>"
	}
	if !n.Placed {
		return fmt.Sprintf("%s(parent=%s, position=unset)", n.ID, parent)
	}
	return fmt.Sprintf("%s(parent=%s, position=%d)", n.ID, parent, n.Position)
}

// Fields is a single-record mutation. Only the fields whose Set flag is true
// are written.
type Fields struct {
	Position    int64
	SetPosition bool
	ParentID    string
	SetParent   bool
}

// PositionField returns a mutation writing only the position.
func PositionField(p int64) Fields {
	return Fields{Position: p, SetPosition: true}
}

// ParentField returns a mutation writing only the parent reference.
func ParentField(parentID string) Fields {
	return Fields{ParentID: parentID, SetParent: true}
}

// WithParent adds a parent write to f.
func (f Fields) WithParent(parentID string) Fields {
	f.ParentID = parentID
	f.SetParent = true
	return f
}

// Empty reports whether f writes nothing.
func (f Fields) Empty() bool {
	return !f.SetPosition && !f.SetParent
}

// Apply returns n with f's fields written.
func (f Fields) Apply(n Node) Node {
	if f.SetPosition {
		n = n.At(f.Position)
	}
	if f.SetParent {
		n.ParentID = f.ParentID
	}
	return n
}

func (f Fields) String() string {
	switch {
	case f.SetPosition && f.SetParent:
		return fmt.Sprintf("{position=%d parent=%q}", f.Position, f.ParentID)
	case f.SetPosition:
		return fmt.Sprintf("{position=%d}", f.Position)
	case f.SetParent:
		return fmt.Sprintf("{parent=%q}", f.ParentID)
	default:
		return "{}"
	}
}

// SortByPosition sorts nodes ascending by position, unplaced nodes last,
// ties broken by ID byte order. This mirrors the ORDER BY every store uses.
func SortByPosition(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Placed != b.Placed {
			return a.Placed
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

// Find returns the node with the given ID.
func Find(nodes []Node, id string) (Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// IDs returns the node IDs in slice order.
func IDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
