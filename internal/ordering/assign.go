package ordering

import (
	"context"
	"fmt"

	"github.com/roach88/treeorder/internal/node"
)

// AssignDefaultPosition places n after an insertion or reparenting.
//
// The caller invokes it once n's new parent is stored and before anything
// relies on n's position. parentChanged reports whether this save moved n to
// a different group.
//
//   - n placed and parent unchanged: nothing is written (re-saving a node
//     never renumbers it)
//   - the group has no other placed member: n goes to 0
//   - otherwise: n goes to max(sibling position) + 1
//
// Returns n with its resulting position.
func (e *Engine) AssignDefaultPosition(ctx context.Context, n node.Node, parentChanged bool) (node.Node, error) {
	placed := n
	err := e.run(ctx, OpAssignDefault, []node.Node{n}, func(ctx context.Context, m *move) error {
		var err error
		placed, err = e.assignDefault(ctx, m, n, parentChanged)
		return err
	})
	if err != nil {
		return node.Node{}, err
	}
	return placed, nil
}

func (e *Engine) assignDefault(ctx context.Context, m *move, n node.Node, parentChanged bool) (node.Node, error) {
	if n.Placed && !parentChanged {
		return n, nil
	}

	pos, err := e.appendPosition(ctx, m.op, n)
	if err != nil {
		return node.Node{}, err
	}
	if err := e.write(ctx, m, n, node.PositionField(pos)); err != nil {
		return node.Node{}, err
	}
	return n.At(pos), nil
}

// appendPosition returns the slot just past the last placed member of the
// group n.ParentID, n itself not counted.
func (e *Engine) appendPosition(ctx context.Context, op string, n node.Node) (int64, error) {
	sibs, err := e.store.Siblings(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("%s: load siblings of %s: %w", op, n.ID, err)
	}
	top, ok := node.MaxPosition(sibs)
	if !ok {
		return 0, nil
	}
	return top + 1, nil
}
