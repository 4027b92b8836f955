package ordering

import (
	"context"
	"fmt"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/queryir"
)

// LowerSiblings returns the siblings of n with a greater position, i.e. the
// nodes listed after n. An unplaced node has no lower siblings.
func (e *Engine) LowerSiblings(ctx context.Context, n node.Node) ([]node.Node, error) {
	if !n.Placed {
		return []node.Node{}, nil
	}
	sibs, err := e.store.SiblingsWhere(ctx, n, queryir.Greater(n.Position))
	if err != nil {
		return nil, fmt.Errorf("lower siblings of %s: %w", n.ID, err)
	}
	return sibs, nil
}

// HigherSiblings returns the siblings of n with a smaller position, i.e. the
// nodes listed before n. An unplaced node has no higher siblings.
func (e *Engine) HigherSiblings(ctx context.Context, n node.Node) ([]node.Node, error) {
	if !n.Placed {
		return []node.Node{}, nil
	}
	sibs, err := e.store.SiblingsWhere(ctx, n, queryir.Less(n.Position))
	if err != nil {
		return nil, fmt.Errorf("higher siblings of %s: %w", n.ID, err)
	}
	return sibs, nil
}

// FirstSiblingInList returns the lowest-positioned member of n's group,
// which may be n itself.
func (e *Engine) FirstSiblingInList(ctx context.Context, n node.Node) (node.Node, error) {
	group, err := e.sortedGroup(ctx, n)
	if err != nil {
		return node.Node{}, err
	}
	if len(group) == 0 || !group[0].Placed {
		return n, nil
	}
	return group[0], nil
}

// LastSiblingInList returns the highest-positioned member of n's group,
// which may be n itself. Unplaced members are skipped.
func (e *Engine) LastSiblingInList(ctx context.Context, n node.Node) (node.Node, error) {
	group, err := e.sortedGroup(ctx, n)
	if err != nil {
		return node.Node{}, err
	}
	for i := len(group) - 1; i >= 0; i-- {
		if group[i].Placed {
			return group[i], nil
		}
	}
	return n, nil
}

// AtTop reports whether n has no higher siblings.
func (e *Engine) AtTop(ctx context.Context, n node.Node) (bool, error) {
	higher, err := e.HigherSiblings(ctx, n)
	if err != nil {
		return false, err
	}
	return len(higher) == 0, nil
}

// AtBottom reports whether n has no lower siblings.
func (e *Engine) AtBottom(ctx context.Context, n node.Node) (bool, error) {
	lower, err := e.LowerSiblings(ctx, n)
	if err != nil {
		return false, err
	}
	return len(lower) == 0, nil
}

func (e *Engine) sortedGroup(ctx context.Context, n node.Node) ([]node.Node, error) {
	group, err := e.store.SiblingsAndSelf(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("sibling group of %s: %w", n.ID, err)
	}
	node.SortByPosition(group)
	return group, nil
}
