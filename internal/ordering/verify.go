package ordering

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/treeorder/internal/node"
)

// Verify re-reads n's sibling group and returns an invariant violation when
// its positions are not exactly 0..len-1.
func (e *Engine) Verify(ctx context.Context, n node.Node) error {
	group, err := e.store.SiblingsAndSelf(ctx, n)
	if err != nil {
		return fmt.Errorf("verify: load group of %s: %w", n.ID, err)
	}
	if err := node.CheckContiguous(n.ParentID, group); err != nil {
		return newInvariantViolation("verify", n, "sibling group is not contiguous", err)
	}
	return nil
}

// VerifyGroup checks the group under parentID ("" for roots).
func (e *Engine) VerifyGroup(ctx context.Context, parentID string) error {
	// A node with no ID belongs to the group but matches no member.
	return e.Verify(ctx, node.Node{ParentID: parentID})
}

// placedLater returns the ID of the node MoveAbove or MoveBelow is about to
// place for the first time, or "" when the moving node already has a position.
func (e *Engine) placedLater(ctx context.Context, op string, n node.Node) (string, error) {
	if op != OpMoveAbove && op != OpMoveBelow {
		return "", nil
	}
	fresh, err := e.refresh(ctx, op, n)
	if err != nil {
		return "", err
	}
	if fresh.Placed {
		return "", nil
	}
	return fresh.ID, nil
}

// verifyGroups checks each distinct group in parents, leaving the node skip
// ("" for none) out of every group.
func (e *Engine) verifyGroups(ctx context.Context, op string, parents []string, skip string) error {
	seen := make(map[string]bool, len(parents))
	for _, p := range parents {
		if seen[p] {
			continue
		}
		seen[p] = true
		if err := e.verifyWithout(ctx, p, skip); err != nil {
			var oe *Error
			if errors.As(err, &oe) {
				oe.Op = op
			}
			return err
		}
	}
	return nil
}

func (e *Engine) verifyWithout(ctx context.Context, parentID, skip string) error {
	if skip == "" {
		return e.VerifyGroup(ctx, parentID)
	}
	self := node.Node{ID: skip, ParentID: parentID}
	group, err := e.store.Siblings(ctx, self)
	if err != nil {
		return fmt.Errorf("verify: load group of %s: %w", parentID, err)
	}
	if err := node.CheckContiguous(parentID, group); err != nil {
		return newInvariantViolation("verify", node.Node{ParentID: parentID}, "sibling group is not contiguous", err)
	}
	return nil
}
