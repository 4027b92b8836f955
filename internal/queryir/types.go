package queryir

// Predicate is a filter over the members of one sibling group.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - PositionEquals: position = v
//   - PositionGreater: position > v
//   - PositionLess: position < v
//   - PositionBetween: low < position < high
//   - ExcludeID: id <> v
//   - And: all predicates must be true
//
// Unplaced nodes (NULL position) never satisfy a position comparison.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// PositionEquals matches the sibling at exactly Value.
//
// Used by single-step moves to find the neighbour at position ± 1.
type PositionEquals struct {
	Value int64
}

func (PositionEquals) predicateNode() {}

// PositionGreater matches siblings below a node in the list
// (position > Value).
type PositionGreater struct {
	Value int64
}

func (PositionGreater) predicateNode() {}

// PositionLess matches siblings above a node in the list
// (position < Value).
type PositionLess struct {
	Value int64
}

func (PositionLess) predicateNode() {}

// PositionBetween matches siblings strictly between two positions
// (Low < position < High). Both bounds are exclusive; an inclusive bound is
// expressed by widening the range by one.
//
// Used by repositioning moves to select only the slots that actually shift.
type PositionBetween struct {
	Low  int64
	High int64
}

func (PositionBetween) predicateNode() {}

// ExcludeID drops one node from the result.
type ExcludeID struct {
	ID string
}

func (ExcludeID) predicateNode() {}

// And is a conjunction. An empty And matches every sibling.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Greater is shorthand for PositionGreater{Value: v}.
func Greater(v int64) Predicate { return PositionGreater{Value: v} }

// Less is shorthand for PositionLess{Value: v}.
func Less(v int64) Predicate { return PositionLess{Value: v} }

// At is shorthand for PositionEquals{Value: v}.
func At(v int64) Predicate { return PositionEquals{Value: v} }

// Between is shorthand for PositionBetween{Low: low, High: high}.
func Between(low, high int64) Predicate { return PositionBetween{Low: low, High: high} }

// AllOf is shorthand for And{Predicates: preds}.
func AllOf(preds ...Predicate) Predicate { return And{Predicates: preds} }
