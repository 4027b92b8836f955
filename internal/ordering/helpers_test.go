package ordering_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/ordering"
	"github.com/roach88/treeorder/internal/store/memstore"
)

// fixture is an engine over a memstore seeded with sibling groups.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memstore.Store
	engine *ordering.Engine
}

func newFixture(t *testing.T, opts ...ordering.Option) *fixture {
	t.Helper()
	s := memstore.New()
	return &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  s,
		engine: ordering.New(s, opts...),
	}
}

// group inserts ids under parentID at positions 0..len-1 and clears the
// write log.
func (f *fixture) group(parentID string, ids ...string) *fixture {
	f.t.Helper()
	for i, id := range ids {
		n := node.Node{ID: id, ParentID: parentID}.At(int64(i))
		require.NoError(f.t, f.store.Insert(f.ctx, n))
	}
	f.store.ResetWrites()
	return f
}

// raw inserts n exactly as given, allowing corrupt or unplaced layouts.
func (f *fixture) raw(nodes ...node.Node) *fixture {
	f.t.Helper()
	for _, n := range nodes {
		require.NoError(f.t, f.store.Insert(f.ctx, n))
	}
	f.store.ResetWrites()
	return f
}

// get returns the stored node.
func (f *fixture) get(id string) node.Node {
	f.t.Helper()
	n, err := f.store.Get(f.ctx, id)
	require.NoError(f.t, err)
	return n
}

// layout renders parentID's group as "A:0 B:1 ...", unplaced nodes as "U:-".
func (f *fixture) layout(parentID string) string {
	f.t.Helper()
	group, err := f.store.Children(f.ctx, parentID)
	require.NoError(f.t, err)

	parts := make([]string, len(group))
	for i, n := range group {
		if n.Placed {
			parts[i] = fmt.Sprintf("%s:%d", n.ID, n.Position)
		} else {
			parts[i] = n.ID + ":-"
		}
	}
	return strings.Join(parts, " ")
}

// writtenIDs lists the IDs persisted since the last reset, in order.
func (f *fixture) writtenIDs() []string {
	writes := f.store.Writes()
	ids := make([]string, len(writes))
	for i, w := range writes {
		ids[i] = w.ID
	}
	return ids
}

// requireContiguous fails unless every group in the store is 0..n-1.
func (f *fixture) requireContiguous() {
	f.t.Helper()
	parents, err := f.store.Parents(f.ctx)
	require.NoError(f.t, err)
	for _, p := range parents {
		require.NoError(f.t, f.engine.VerifyGroup(f.ctx, p), "group %q: %s", p, f.layout(p))
	}
}

// recordingLocker is a GroupLocker that logs lock and unlock order.
type recordingLocker struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (l *recordingLocker) Lock(ctx context.Context, group string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.events = append(l.events, "lock "+group)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, "unlock "+group)
	}, nil
}
