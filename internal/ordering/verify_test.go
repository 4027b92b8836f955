package ordering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/ordering"
)

func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		nodes []node.Node
		ok    bool
	}{
		{
			name: "contiguous",
			nodes: []node.Node{
				node.Node{ID: "A", ParentID: "p"}.At(0),
				node.Node{ID: "B", ParentID: "p"}.At(1),
			},
			ok: true,
		},
		{
			name: "gap",
			nodes: []node.Node{
				node.Node{ID: "A", ParentID: "p"}.At(0),
				node.Node{ID: "B", ParentID: "p"}.At(2),
			},
		},
		{
			name: "duplicate",
			nodes: []node.Node{
				node.Node{ID: "A", ParentID: "p"}.At(0),
				node.Node{ID: "B", ParentID: "p"}.At(0),
			},
		},
		{
			name: "unplaced",
			nodes: []node.Node{
				node.Node{ID: "A", ParentID: "p"}.At(0),
				{ID: "B", ParentID: "p"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t).raw(tt.nodes...)

			err := f.engine.Verify(f.ctx, f.get("A"))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, ordering.IsInvariantViolation(err))
		})
	}
}

func TestVerifyGroup_Empty(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.engine.VerifyGroup(f.ctx, "nobody"))
}

func TestWithVerify_RefusesCorruptGroup(t *testing.T) {
	f := newFixture(t, ordering.WithVerify(true)).raw(
		node.Node{ID: "A", ParentID: "p"}.At(0),
		node.Node{ID: "B", ParentID: "p"}.At(1),
		node.Node{ID: "C", ParentID: "p"}.At(3),
	)

	err := f.engine.MoveToTop(f.ctx, f.get("B"))

	require.Error(t, err)
	assert.True(t, ordering.IsInvariantViolation(err))

	var oe *ordering.Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, ordering.OpMoveToTop, oe.Op)
	assert.Empty(t, f.store.Writes())
}

func TestWithVerify_ChecksBothGroups(t *testing.T) {
	f := newFixture(t, ordering.WithVerify(true)).
		group("P1", "X", "S1").
		raw(
			node.Node{ID: "Y0", ParentID: "P2"}.At(0),
			node.Node{ID: "Y1", ParentID: "P2"}.At(0),
		)

	err := f.engine.MoveBelow(f.ctx, f.get("X"), f.get("Y0"))

	require.Error(t, err)
	assert.True(t, ordering.IsInvariantViolation(err))
	assert.Equal(t, "X:0 S1:1", f.layout("P1"))
}

func TestWithVerify_PassesOnHealthyMoves(t *testing.T) {
	f := newFixture(t, ordering.WithVerify(true)).
		group("P1", "A", "B", "C").
		group("P2", "D")

	require.NoError(t, f.engine.MoveUp(f.ctx, f.get("C")))
	require.NoError(t, f.engine.MoveBelow(f.ctx, f.get("A"), f.get("D")))
	require.NoError(t, f.engine.MoveToBottom(f.ctx, f.get("C")))

	assert.Equal(t, "B:0 C:1", f.layout("P1"))
	assert.Equal(t, "D:0 A:1", f.layout("P2"))
}

func TestWithVerify_PlacesUnplacedMover(t *testing.T) {
	f := newFixture(t, ordering.WithVerify(true)).
		group("p", "A", "B", "C").
		raw(node.Node{ID: "U", ParentID: "p"})

	require.NoError(t, f.engine.MoveAbove(f.ctx, f.get("U"), f.get("B")))

	assert.Equal(t, "A:0 U:1 B:2 C:3", f.layout("p"))
	require.NoError(t, f.engine.VerifyGroup(f.ctx, "p"))
}

func TestWithVerify_UnplacedMoverStillRefusesCorruptGroup(t *testing.T) {
	f := newFixture(t, ordering.WithVerify(true)).raw(
		node.Node{ID: "A", ParentID: "p"}.At(0),
		node.Node{ID: "B", ParentID: "p"}.At(2),
		node.Node{ID: "U", ParentID: "p"},
	)

	err := f.engine.MoveAbove(f.ctx, f.get("U"), f.get("A"))

	require.Error(t, err)
	assert.True(t, ordering.IsInvariantViolation(err))

	var oe *ordering.Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, ordering.OpMoveAbove, oe.Op)
	assert.Empty(t, f.store.Writes())
	assert.Equal(t, "A:0 B:2 U:-", f.layout("p"))
}

func TestWithVerify_UnplacedNodeAloneIsNotCorrupt(t *testing.T) {
	f := newFixture(t, ordering.WithVerify(true)).
		group("p", "A").
		raw(node.Node{ID: "U", ParentID: "p"})

	require.NoError(t, f.engine.MoveBelow(f.ctx, f.get("U"), f.get("A")))

	assert.Equal(t, "A:0 U:1", f.layout("p"))
}
