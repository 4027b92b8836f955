package queryir

import (
	"fmt"

	"github.com/roach88/treeorder/internal/node"
)

// Match evaluates p against one node. A nil predicate matches everything.
//
// Match is the in-memory backend; it must agree with the SQL backend on
// every predicate, including the rule that unplaced nodes never satisfy a
// position comparison.
func Match(p Predicate, n node.Node) (bool, error) {
	if p == nil {
		return true, nil
	}

	switch pred := p.(type) {
	case PositionEquals:
		return n.Placed && n.Position == pred.Value, nil
	case *PositionEquals:
		return n.Placed && n.Position == pred.Value, nil
	case PositionGreater:
		return n.Placed && n.Position > pred.Value, nil
	case *PositionGreater:
		return n.Placed && n.Position > pred.Value, nil
	case PositionLess:
		return n.Placed && n.Position < pred.Value, nil
	case *PositionLess:
		return n.Placed && n.Position < pred.Value, nil
	case PositionBetween:
		return n.Placed && n.Position > pred.Low && n.Position < pred.High, nil
	case *PositionBetween:
		return n.Placed && n.Position > pred.Low && n.Position < pred.High, nil
	case ExcludeID:
		return n.ID != pred.ID, nil
	case *ExcludeID:
		return n.ID != pred.ID, nil
	case And:
		return matchAll(pred.Predicates, n)
	case *And:
		return matchAll(pred.Predicates, n)
	default:
		return false, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func matchAll(preds []Predicate, n node.Node) (bool, error) {
	for _, sub := range preds {
		ok, err := Match(sub, n)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Filter returns the nodes matching p, preserving input order.
func Filter(p Predicate, nodes []node.Node) ([]node.Node, error) {
	out := []node.Node{}
	for _, n := range nodes {
		ok, err := Match(p, n)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	return out, nil
}
