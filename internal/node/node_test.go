package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiblingOf(t *testing.T) {
	a := Node{ID: "a", ParentID: "p"}
	b := Node{ID: "b", ParentID: "p"}
	c := Node{ID: "c", ParentID: "q"}
	r1 := Node{ID: "r1"}
	r2 := Node{ID: "r2"}

	assert.True(t, a.SiblingOf(b))
	assert.False(t, a.SiblingOf(c))
	assert.False(t, a.SiblingOf(a), "a node is not its own sibling")
	assert.True(t, r1.SiblingOf(r2), "roots share the empty parent")
	assert.True(t, r1.IsRoot())
	assert.False(t, a.IsRoot())
}

func TestFieldsApply(t *testing.T) {
	n := Node{ID: "x", ParentID: "p"}

	moved := PositionField(3).WithParent("q").Apply(n)
	assert.Equal(t, "q", moved.ParentID)
	assert.Equal(t, int64(3), moved.Position)
	assert.True(t, moved.Placed)

	// Original untouched
	assert.Equal(t, "p", n.ParentID)
	assert.False(t, n.Placed)

	reparented := ParentField("").Apply(moved)
	assert.True(t, reparented.IsRoot())
	assert.Equal(t, int64(3), reparented.Position)

	assert.True(t, Fields{}.Empty())
	assert.False(t, PositionField(0).Empty())
}

func TestFieldsString(t *testing.T) {
	assert.Equal(t, "{position=2}", PositionField(2).String())
	assert.Equal(t, `{parent="p"}`, ParentField("p").String())
	assert.Equal(t, `{position=0 parent="p"}`, PositionField(0).WithParent("p").String())
	assert.Equal(t, "{}", Fields{}.String())
}

func TestNodeString(t *testing.T) {
	assert.Equal(t, "a(parent=<root>, position=unset)", Node{ID: "a"}.String())
	assert.Equal(t, "a(parent=p, position=4)", Node{ID: "a", ParentID: "p"}.At(4).String())
}

func TestSortByPosition(t *testing.T) {
	nodes := []Node{
		{ID: "u"},
		{ID: "c", Position: 2, Placed: true},
		{ID: "b", Position: 0, Placed: true},
		{ID: "a", Position: 0, Placed: true},
		{ID: "d", Position: 1, Placed: true},
	}

	SortByPosition(nodes)

	assert.Equal(t, []string{"a", "b", "d", "c", "u"}, IDs(nodes))
}

func TestFind(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b", Position: 1, Placed: true}}

	got, ok := Find(nodes, "b")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Position)

	_, ok = Find(nodes, "zzz")
	assert.False(t, ok)
}
