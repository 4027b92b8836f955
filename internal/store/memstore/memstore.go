// Package memstore provides an in-memory Sibling Store for tests and
// embedding. Nodes are lost when the process exits.
//
// Every read returns copies, so a node obtained before a write never reflects
// it. Persist calls are recorded and can be made to fail on demand, which
// lets tests observe the exact write sequence of a move and its partially
// applied state after a failure.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/ordering"
	"github.com/roach88/treeorder/internal/queryir"
	"github.com/roach88/treeorder/internal/store"
)

// ErrInjected is the default error returned by FailAfter.
var ErrInjected = errors.New("injected persist failure")

// Write is one recorded Persist call.
type Write struct {
	ID     string
	Fields node.Fields
}

// Store is a map-backed Sibling Store.
type Store struct {
	mu     sync.RWMutex
	nodes  map[string]node.Node
	writes []Write

	failIn  int // persists left before the injected failure; -1 = never
	failErr error
}

// Ensure Store implements ordering.SiblingStore at compile time.
var _ ordering.SiblingStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes:  make(map[string]node.Node),
		failIn: -1,
	}
}

// Insert adds n as-is. Returns store.ErrConflict if the ID exists.
func (s *Store) Insert(ctx context.Context, n node.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.ID]; exists {
		return store.ErrConflict
	}
	s.nodes[n.ID] = n
	return nil
}

// Get returns the node with the given ID or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return node.Node{}, store.ErrNotFound
	}
	return n, nil
}

// Delete removes a node. Positions of its former siblings are not touched.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.nodes, id)
	return nil
}

// Children returns the group under parentID ("" for roots), ascending.
func (s *Store) Children(ctx context.Context, parentID string) ([]node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.group(parentID, "", nil)
}

// Roots returns the root group.
func (s *Store) Roots(ctx context.Context) ([]node.Node, error) {
	return s.Children(ctx, "")
}

// Parents returns every distinct group key in use, sorted; "" stands for the
// root group.
func (s *Store) Parents(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	parents := []string{}
	for _, n := range s.nodes {
		if !seen[n.ParentID] {
			seen[n.ParentID] = true
			parents = append(parents, n.ParentID)
		}
	}
	sort.Strings(parents)
	return parents, nil
}

// Siblings returns n's group without n.
func (s *Store) Siblings(ctx context.Context, n node.Node) ([]node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.group(n.ParentID, n.ID, nil)
}

// SiblingsAndSelf returns n's group including n.
func (s *Store) SiblingsAndSelf(ctx context.Context, n node.Node) ([]node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.group(n.ParentID, "", nil)
}

// SiblingsWhere returns n's group without n, filtered by pred.
func (s *Store) SiblingsWhere(ctx context.Context, n node.Node, pred queryir.Predicate) ([]node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.group(n.ParentID, n.ID, pred)
}

// Persist writes the set fields of f for one node.
func (s *Store) Persist(ctx context.Context, id string, f node.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failIn == 0 {
		s.failIn = -1
		return fmt.Errorf("persist %s: %w", id, s.failErr)
	}
	if s.failIn > 0 {
		s.failIn--
	}

	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("persist %s: %w", id, store.ErrNotFound)
	}
	s.nodes[id] = f.Apply(n)
	s.writes = append(s.writes, Write{ID: id, Fields: f})
	return nil
}

// FailAfter makes the Persist call following the next n successful ones
// return err (ErrInjected when err is nil). The failure fires once. A
// negative n disarms a pending failure.
func (s *Store) FailAfter(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		err = ErrInjected
	}
	s.failIn = n
	s.failErr = err
}

// Writes returns the successful Persist calls in order.
func (s *Store) Writes() []Write {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Write, len(s.writes))
	copy(out, s.writes)
	return out
}

// ResetWrites clears the recorded write log.
func (s *Store) ResetWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes = nil
}

// group returns the members of parentID's group except exclude, filtered by
// pred and sorted. Caller holds the lock.
func (s *Store) group(parentID, exclude string, pred queryir.Predicate) ([]node.Node, error) {
	members := []node.Node{}
	for _, n := range s.nodes {
		if n.ParentID != parentID || (exclude != "" && n.ID == exclude) {
			continue
		}
		members = append(members, n)
	}
	out, err := queryir.Filter(pred, members)
	if err != nil {
		return nil, err
	}
	node.SortByPosition(out)
	return out, nil
}
