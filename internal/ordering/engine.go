package ordering

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/observability"
	"github.com/roach88/treeorder/internal/queryir"
)

// SiblingStore is the storage contract the engine consumes.
//
// Every read returns independent snapshots ordered ascending by position,
// unplaced nodes last, ties broken by ID byte order. The group is resolved
// from n.ParentID; n itself is matched by ID.
type SiblingStore interface {
	// Siblings returns the members of n's group except n.
	Siblings(ctx context.Context, n node.Node) ([]node.Node, error)

	// SiblingsAndSelf returns every member of n's group, n included when
	// the store holds it under n.ParentID.
	SiblingsAndSelf(ctx context.Context, n node.Node) ([]node.Node, error)

	// SiblingsWhere returns the members of n's group except n that match pred.
	SiblingsWhere(ctx context.Context, n node.Node, pred queryir.Predicate) ([]node.Node, error)

	// Persist writes the set fields of f for exactly one node.
	Persist(ctx context.Context, id string, f node.Fields) error
}

// NodeGetter is implemented by stores that can load one node by ID. When the
// store provides it the engine re-reads nodes by ID instead of searching the
// caller's idea of their sibling group.
type NodeGetter interface {
	Get(ctx context.Context, id string) (node.Node, error)
}

// GroupLocker grants exclusive access to one sibling group.
// Implemented by lock.Local and lock.Redis.
type GroupLocker interface {
	Lock(ctx context.Context, group string) (unlock func(), err error)
}

// Operation names used in logs, metrics and errors.
const (
	OpAssignDefault = "assign_default"
	OpMoveUp        = "move_up"
	OpMoveDown      = "move_down"
	OpMoveToTop     = "move_to_top"
	OpMoveToBottom  = "move_to_bottom"
	OpMoveAbove     = "move_above"
	OpMoveBelow     = "move_below"
)

// Engine computes and persists sibling positions.
//
// Thread-safety: Engine holds no mutable state and may be shared. Safety of
// concurrent moves within one group depends on the configured GroupLocker.
type Engine struct {
	store  SiblingStore
	getter NodeGetter // nil when store cannot load by ID
	locker GroupLocker
	verify bool
}

// maxLockAttempts bounds how often run re-locks when the nodes it moves
// change groups while it waits for their locks.
const maxLockAttempts = 5

// Option configures an Engine.
type Option func(*Engine)

// WithLocker makes every operation hold the lock of each sibling group it
// touches. Default: no locking.
func WithLocker(l GroupLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithVerify checks contiguity of every touched group before and after each
// move, returning an invariant violation instead of moving inside a corrupt
// group. Costs one extra group read per group per check. An unplaced node
// handed to MoveAbove or MoveBelow is left out of the first check, since the
// move is what gives it a position.
func WithVerify(on bool) Option {
	return func(e *Engine) {
		e.verify = on
	}
}

// New creates an Engine over the given store.
func New(s SiblingStore, opts ...Option) *Engine {
	e := &Engine{store: s}
	if g, ok := s.(NodeGetter); ok {
		e.getter = g
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GroupKey maps a parent reference to the key used for locking.
// The root group and a parent literally named "" cannot collide because
// every key carries the "/" prefix.
func GroupKey(parentID string) string {
	return "/" + parentID
}

// move tracks one operation in flight.
type move struct {
	op     string
	writes int
}

// run executes fn under the locks of the groups holding nodes and records
// its outcome. nodes[0] is the node being moved.
func (e *Engine) run(ctx context.Context, op string, nodes []node.Node, fn func(ctx context.Context, m *move) error) error {
	start := time.Now()
	m := &move{op: op}
	target := nodes[0]

	parents, unlock, err := e.lockNodes(ctx, op, nodes)
	if err != nil {
		observability.MovesTotal.WithLabelValues(op, observability.OutcomeError).Inc()
		return err
	}
	defer unlock()

	// A default assignment runs while its own node is still unplaced.
	check := e.verify && op != OpAssignDefault
	if check {
		skip, err := e.placedLater(ctx, op, target)
		if err == nil {
			err = e.verifyGroups(ctx, op, parents, skip)
		}
		if err != nil {
			e.finish(m, target, start, err)
			return err
		}
	}

	err = fn(ctx, m)
	if err == nil && check && m.writes > 0 {
		err = e.verifyGroups(ctx, op, parents, "")
	}

	e.finish(m, target, start, err)
	return err
}

// lockNodes locks the groups currently holding nodes. Another writer may
// move one of them while we wait, so the parents are read again once the
// locks are held and the whole acquisition is retried when they moved.
func (e *Engine) lockNodes(ctx context.Context, op string, nodes []node.Node) ([]string, func(), error) {
	parents, err := e.currentParents(ctx, op, nodes)
	if err != nil {
		return nil, nil, err
	}
	if e.locker == nil {
		return parents, func() {}, nil
	}

	for attempt := 1; ; attempt++ {
		unlock, err := e.lockGroups(ctx, parents)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: lock sibling group: %w", op, err)
		}

		now, err := e.currentParents(ctx, op, nodes)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if slices.Equal(now, parents) {
			return parents, unlock, nil
		}

		unlock()
		if attempt == maxLockAttempts {
			return nil, nil, fmt.Errorf("%s: node %s keeps changing sibling group", op, nodes[0].ID)
		}
		slog.Debug("sibling group changed while locking, retrying",
			"op", op,
			"node", nodes[0].ID,
			"attempt", attempt,
		)
		parents = now
	}
}

// currentParents returns the parent of every node as stored now, or as the
// caller last saw it when the store cannot load by ID.
func (e *Engine) currentParents(ctx context.Context, op string, nodes []node.Node) ([]string, error) {
	parents := make([]string, len(nodes))
	for i, n := range nodes {
		if e.getter != nil {
			fresh, err := e.getter.Get(ctx, n.ID)
			if err != nil {
				return nil, fmt.Errorf("%s: load %s: %w", op, n.ID, err)
			}
			n = fresh
		}
		parents[i] = n.ParentID
	}
	return parents, nil
}

func (e *Engine) finish(m *move, target node.Node, start time.Time, err error) {
	elapsed := time.Since(start)
	observability.MoveDuration.WithLabelValues(m.op).Observe(elapsed.Seconds())

	outcome := observability.OutcomeApplied
	switch {
	case IsPersistenceError(err):
		outcome = observability.OutcomePersistenceError
	case IsInvariantViolation(err):
		outcome = observability.OutcomeInvariantViolation
	case err != nil:
		outcome = observability.OutcomeError
	case m.writes == 0:
		outcome = observability.OutcomeNoop
	}
	observability.MovesTotal.WithLabelValues(m.op, outcome).Inc()

	if err != nil {
		slog.Error("ordering operation failed",
			"op", m.op,
			"node", target.ID,
			"writes", m.writes,
			"error", err,
		)
		return
	}
	slog.Info("ordering operation applied",
		"op", m.op,
		"node", target.ID,
		"outcome", outcome,
		"writes", m.writes,
		"duration", elapsed,
	)
}

// lockGroups acquires the locks of the distinct groups in sorted key order.
func (e *Engine) lockGroups(ctx context.Context, parents []string) (func(), error) {
	if e.locker == nil {
		return func() {}, nil
	}

	keys := make([]string, 0, len(parents))
	seen := make(map[string]bool, len(parents))
	for _, p := range parents {
		k := GroupKey(p)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for _, k := range keys {
		unlock, err := e.locker.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

// write persists f for n and counts the write.
func (e *Engine) write(ctx context.Context, m *move, n node.Node, f node.Fields) error {
	slog.Debug("persisting node",
		"op", m.op,
		"node", n.ID,
		"fields", f.String(),
	)

	if err := e.store.Persist(ctx, n.ID, f); err != nil {
		return newPersistenceError(m.op, n, f, err)
	}
	m.writes++
	observability.PositionWritesTotal.WithLabelValues(m.op).Inc()
	return nil
}

// shift moves every node in nodes by delta. nodes must be ascending. Writes
// start at the end adjacent to the slot being freed so that at most one
// position is duplicated at any instant.
func (e *Engine) shift(ctx context.Context, m *move, nodes []node.Node, delta int64) error {
	order := make([]node.Node, len(nodes))
	copy(order, nodes)
	if delta > 0 {
		// The freed slot sits past the high end of the range.
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	for _, s := range order {
		if err := e.write(ctx, m, s, node.PositionField(s.Position+delta)); err != nil {
			return err
		}
	}
	return nil
}

// between loads n's siblings strictly between low and high. A range that
// cannot hold a position never reaches the store.
func (e *Engine) between(ctx context.Context, m *move, n node.Node, low, high int64) ([]node.Node, error) {
	pred := queryir.Between(low, high)
	if res := queryir.Validate(pred); !res.IsValid {
		slog.Debug("skipping sibling query", "op", m.op, "node", n.ID, "warnings", res.Warnings)
		return nil, nil
	}
	return e.store.SiblingsWhere(ctx, n, pred)
}

// refresh re-reads n by ID. Without a NodeGetter n is looked up in its
// sibling group, and when the store no longer holds it under n.ParentID the
// snapshot is returned unchanged.
func (e *Engine) refresh(ctx context.Context, op string, n node.Node) (node.Node, error) {
	if e.getter != nil {
		fresh, err := e.getter.Get(ctx, n.ID)
		if err != nil {
			return node.Node{}, fmt.Errorf("%s: load %s: %w", op, n.ID, err)
		}
		return fresh, nil
	}

	group, err := e.store.SiblingsAndSelf(ctx, n)
	if err != nil {
		return node.Node{}, fmt.Errorf("%s: load %s: %w", op, n.ID, err)
	}
	if fresh, ok := node.Find(group, n.ID); ok {
		return fresh, nil
	}
	slog.Warn("node not found in its sibling group, using caller snapshot",
		"op", op,
		"node", n.ID,
		"parent", n.ParentID,
	)
	return n, nil
}
