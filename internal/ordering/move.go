package ordering

import (
	"context"
	"fmt"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/queryir"
)

// MoveUp swaps n with the sibling directly above it. Exactly two writes;
// a no-op when n is already at the top.
func (e *Engine) MoveUp(ctx context.Context, n node.Node) error {
	return e.run(ctx, OpMoveUp, []node.Node{n}, func(ctx context.Context, m *move) error {
		return e.step(ctx, m, n, -1)
	})
}

// MoveDown swaps n with the sibling directly below it. Exactly two writes;
// a no-op when n is already at the bottom.
func (e *Engine) MoveDown(ctx context.Context, n node.Node) error {
	return e.run(ctx, OpMoveDown, []node.Node{n}, func(ctx context.Context, m *move) error {
		return e.step(ctx, m, n, 1)
	})
}

// step swaps n with its neighbour at n.Position+dir.
func (e *Engine) step(ctx context.Context, m *move, n node.Node, dir int64) error {
	n, err := e.refresh(ctx, m.op, n)
	if err != nil {
		return err
	}

	var boundary bool
	if dir < 0 {
		boundary, err = e.AtTop(ctx, n)
	} else {
		boundary, err = e.AtBottom(ctx, n)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", m.op, err)
	}
	if boundary {
		return nil
	}

	target := n.Position + dir
	neighbours, err := e.store.SiblingsWhere(ctx, n, queryir.At(target))
	if err != nil {
		return fmt.Errorf("%s: load neighbour of %s: %w", m.op, n.ID, err)
	}
	if len(neighbours) != 1 {
		return newInvariantViolation(m.op, n,
			fmt.Sprintf("expected one sibling at position %d, found %d", target, len(neighbours)), nil)
	}

	if err := e.write(ctx, m, neighbours[0], node.PositionField(n.Position)); err != nil {
		return err
	}
	return e.write(ctx, m, n, node.PositionField(target))
}

// MoveToTop moves n above every sibling. A no-op when n is already first.
func (e *Engine) MoveToTop(ctx context.Context, n node.Node) error {
	return e.run(ctx, OpMoveToTop, []node.Node{n}, func(ctx context.Context, m *move) error {
		n, err := e.refresh(ctx, m.op, n)
		if err != nil {
			return err
		}
		top, err := e.AtTop(ctx, n)
		if err != nil || top {
			return err
		}
		first, err := e.FirstSiblingInList(ctx, n)
		if err != nil {
			return err
		}
		return e.moveAbove(ctx, m, n, first)
	})
}

// MoveToBottom moves n below every sibling. A no-op when n is already last.
func (e *Engine) MoveToBottom(ctx context.Context, n node.Node) error {
	return e.run(ctx, OpMoveToBottom, []node.Node{n}, func(ctx context.Context, m *move) error {
		n, err := e.refresh(ctx, m.op, n)
		if err != nil {
			return err
		}
		bottom, err := e.AtBottom(ctx, n)
		if err != nil || bottom {
			return err
		}
		last, err := e.LastSiblingInList(ctx, n)
		if err != nil {
			return err
		}
		return e.moveBelow(ctx, m, n, last)
	})
}

// MoveAbove places n immediately before other, adopting other's parent first
// when the two are not siblings. Moving a node above itself is a no-op.
func (e *Engine) MoveAbove(ctx context.Context, n, other node.Node) error {
	return e.run(ctx, OpMoveAbove, []node.Node{n, other}, func(ctx context.Context, m *move) error {
		return e.moveAbove(ctx, m, n, other)
	})
}

// MoveBelow places n immediately after other, adopting other's parent first
// when the two are not siblings. Moving a node below itself is a no-op.
func (e *Engine) MoveBelow(ctx context.Context, n, other node.Node) error {
	return e.run(ctx, OpMoveBelow, []node.Node{n, other}, func(ctx context.Context, m *move) error {
		return e.moveBelow(ctx, m, n, other)
	})
}

func (e *Engine) moveAbove(ctx context.Context, m *move, n, other node.Node) error {
	n, other, err := e.prepare(ctx, m, n, other)
	if err != nil || n.ID == other.ID {
		return err
	}

	op := other.Position
	if n.Position > op {
		// n comes up from below: other and everything down to n's old slot
		// move one place down the list.
		between, err := e.between(ctx, m, n, op-1, n.Position)
		if err != nil {
			return fmt.Errorf("%s: load shifted siblings: %w", m.op, err)
		}
		if err := e.shift(ctx, m, between, 1); err != nil {
			return err
		}
		return e.write(ctx, m, n, node.PositionField(op))
	}

	// n comes down from above: everything strictly between n and other
	// moves one place up the list; other stays.
	between, err := e.between(ctx, m, n, n.Position, op)
	if err != nil {
		return fmt.Errorf("%s: load shifted siblings: %w", m.op, err)
	}
	if err := e.shift(ctx, m, between, -1); err != nil {
		return err
	}
	return e.place(ctx, m, n, op-1)
}

func (e *Engine) moveBelow(ctx context.Context, m *move, n, other node.Node) error {
	n, other, err := e.prepare(ctx, m, n, other)
	if err != nil || n.ID == other.ID {
		return err
	}

	op := other.Position
	if n.Position > op {
		// n comes up from below: everything strictly between other and n
		// moves one place down the list; other stays.
		between, err := e.between(ctx, m, n, op, n.Position)
		if err != nil {
			return fmt.Errorf("%s: load shifted siblings: %w", m.op, err)
		}
		if err := e.shift(ctx, m, between, 1); err != nil {
			return err
		}
		return e.place(ctx, m, n, op+1)
	}

	// n comes down from above: everything after n up to and including other
	// moves one place up the list.
	between, err := e.between(ctx, m, n, n.Position, op+1)
	if err != nil {
		return fmt.Errorf("%s: load shifted siblings: %w", m.op, err)
	}
	if err := e.shift(ctx, m, between, -1); err != nil {
		return err
	}
	return e.write(ctx, m, n, node.PositionField(op))
}

// place writes n's final position unless n already holds it, which happens
// when n was directly adjacent to other on the requested side.
func (e *Engine) place(ctx context.Context, m *move, n node.Node, pos int64) error {
	if n.Placed && n.Position == pos {
		return nil
	}
	return e.write(ctx, m, n, node.PositionField(pos))
}

// prepare refreshes n and other and makes them siblings. On return either
// n.ID == other.ID (nothing to do) or both are placed members of one group.
func (e *Engine) prepare(ctx context.Context, m *move, n, other node.Node) (node.Node, node.Node, error) {
	if n.ID == other.ID {
		return n, other, nil
	}

	other, err := e.refresh(ctx, m.op, other)
	if err != nil {
		return node.Node{}, node.Node{}, err
	}
	if !other.Placed {
		return node.Node{}, node.Node{}, newInvariantViolation(m.op, other, "target node has no position", nil)
	}

	n, err = e.refresh(ctx, m.op, n)
	if err != nil {
		return node.Node{}, node.Node{}, err
	}

	switch {
	case n.ParentID != other.ParentID:
		n, err = e.moveToParentOf(ctx, m, n, other)
	case !n.Placed:
		n, err = e.assignDefault(ctx, m, n, true)
	}
	if err != nil {
		return node.Node{}, node.Node{}, err
	}
	return n, other, nil
}

// moveToParentOf closes the gap n leaves in its current group, then moves n
// to the end of other's group. Parent and position are written together so
// n is never stored with a parent its position does not belong to.
func (e *Engine) moveToParentOf(ctx context.Context, m *move, n, other node.Node) (node.Node, error) {
	lower, err := e.LowerSiblings(ctx, n)
	if err != nil {
		return node.Node{}, fmt.Errorf("%s: %w", m.op, err)
	}
	if err := e.shift(ctx, m, lower, -1); err != nil {
		return node.Node{}, err
	}

	arrived := n
	arrived.ParentID = other.ParentID
	pos, err := e.appendPosition(ctx, m.op, arrived)
	if err != nil {
		return node.Node{}, err
	}

	if err := e.write(ctx, m, n, node.PositionField(pos).WithParent(other.ParentID)); err != nil {
		return node.Node{}, err
	}
	return arrived.At(pos), nil
}
