package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/queryir"
)

func TestGet_Exists(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := node.Node{ID: "a", ParentID: "p", Label: "first"}.At(3)
	require.NoError(t, s.Insert(ctx, want))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGet_Unplaced(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, node.Node{ID: "a"}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, got.Placed)
	assert.True(t, got.IsRoot())
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChildren_Empty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.Children(context.Background(), "p")
	require.NoError(t, err)
	assert.NotNil(t, got, "should return empty slice, not nil")
	assert.Empty(t, got)
}

func TestChildren_DeterministicOrdering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Inserted out of order, with a transient duplicate and an unplaced node.
	require.NoError(t, s.Insert(ctx, node.Node{ID: "d", ParentID: "p"}))
	require.NoError(t, s.Insert(ctx, node.Node{ID: "c", ParentID: "p"}.At(1)))
	require.NoError(t, s.Insert(ctx, node.Node{ID: "B", ParentID: "p"}.At(1)))
	require.NoError(t, s.Insert(ctx, node.Node{ID: "a", ParentID: "p"}.At(0)))

	got, err := s.Children(ctx, "p")
	require.NoError(t, err)

	// Binary collation: "B" (0x42) sorts before "c" (0x63).
	assert.Equal(t, []string{"a", "B", "c", "d"}, node.IDs(got))
}

func TestRoots(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seedGroup(t, s, "", "r0", "r1")
	seedGroup(t, s, "r0", "c0")

	got, err := s.Roots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r0", "r1"}, node.IDs(got))
}

func TestParents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seedGroup(t, s, "", "r0")
	seedGroup(t, s, "r0", "c0")
	seedGroup(t, s, "Z", "z0")

	got, err := s.Parents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "Z", "r0"}, got)
}

func TestSiblings(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seedGroup(t, s, "p", "a", "b", "c")
	seedGroup(t, s, "q", "x")

	b, err := s.Get(ctx, "b")
	require.NoError(t, err)

	sibs, err := s.Siblings(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, node.IDs(sibs))

	all, err := s.SiblingsAndSelf(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, node.IDs(all))
}

func TestSiblingsWhere(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seedGroup(t, s, "p", "a", "b", "c", "d", "e")
	c, err := s.Get(ctx, "c")
	require.NoError(t, err)

	tests := []struct {
		name string
		pred queryir.Predicate
		want []string
	}{
		{"nil", nil, []string{"a", "b", "d", "e"}},
		{"greater", queryir.Greater(2), []string{"d", "e"}},
		{"less", queryir.Less(2), []string{"a", "b"}},
		{"equals", queryir.At(3), []string{"d"}},
		{"equals self", queryir.At(2), []string{}},
		{"between", queryir.Between(0, 4), []string{"b", "d"}},
		{"and", queryir.AllOf(queryir.Greater(0), queryir.ExcludeID{ID: "e"}), []string{"b", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SiblingsWhere(ctx, c, tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, node.IDs(got))
		})
	}
}

func TestSiblingsWhere_RootGroup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seedGroup(t, s, "", "r0", "r1", "r2")
	seedGroup(t, s, "r0", "c0", "c1", "c2")

	r0, err := s.Get(ctx, "r0")
	require.NoError(t, err)

	got, err := s.SiblingsWhere(ctx, r0, queryir.Greater(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, node.IDs(got))
}
