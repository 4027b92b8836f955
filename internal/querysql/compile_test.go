package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/queryir"
)

func TestCompile_WholeGroup(t *testing.T) {
	compiler := NewSQLCompiler(SQLite)

	sql, params, err := compiler.Compile(SiblingQuery{ParentID: "p1"})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, parent_id, position, label FROM nodes WHERE parent_id = ? "+
			"ORDER BY position IS NULL, position ASC, id COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{"p1"}, params)
}

func TestCompile_RootGroup(t *testing.T) {
	compiler := NewSQLCompiler(SQLite)

	sql, params, err := compiler.Compile(SiblingQuery{})
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE parent_id IS NULL ORDER BY")
	assert.Empty(t, params)
}

func TestCompile_FilterIsParameterized(t *testing.T) {
	compiler := NewSQLCompiler(SQLite)

	sql, params, err := compiler.Compile(SiblingQuery{
		ParentID: "p1",
		Filter:   queryir.AllOf(queryir.Greater(3), queryir.ExcludeID{ID: "secret-id"}),
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE parent_id = ? AND (position > ? AND id <> ?)")
	assert.NotContains(t, sql, "secret-id")
	assert.Equal(t, []any{"p1", int64(3), "secret-id"}, params)
}

func TestCompile_EveryPredicate(t *testing.T) {
	compiler := NewSQLCompiler(SQLite)

	tests := []struct {
		name     string
		filter   queryir.Predicate
		fragment string
		params   []any
	}{
		{"equals", queryir.At(2), "position = ?", []any{int64(2)}},
		{"equals pointer", &queryir.PositionEquals{Value: 2}, "position = ?", []any{int64(2)}},
		{"greater", queryir.Greater(1), "position > ?", []any{int64(1)}},
		{"greater pointer", &queryir.PositionGreater{Value: 1}, "position > ?", []any{int64(1)}},
		{"less", queryir.Less(5), "position < ?", []any{int64(5)}},
		{"less pointer", &queryir.PositionLess{Value: 5}, "position < ?", []any{int64(5)}},
		{"between", queryir.Between(1, 4), "(position > ? AND position < ?)", []any{int64(1), int64(4)}},
		{"between pointer", &queryir.PositionBetween{Low: 1, High: 4}, "(position > ? AND position < ?)", []any{int64(1), int64(4)}},
		{"exclude", queryir.ExcludeID{ID: "x"}, "id <> ?", []any{"x"}},
		{"exclude pointer", &queryir.ExcludeID{ID: "x"}, "id <> ?", []any{"x"}},
		{"empty and", queryir.AllOf(), "1 = 1", nil},
		{"and pointer", &queryir.And{Predicates: []queryir.Predicate{queryir.At(0)}}, "(position = ?)", []any{int64(0)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := compiler.Compile(SiblingQuery{Filter: tc.filter})
			require.NoError(t, err)
			assert.Contains(t, sql, "WHERE parent_id IS NULL AND "+tc.fragment+" ORDER BY")
			assert.Equal(t, tc.params, params)
		})
	}
}

func TestCompile_OrderByMandatory(t *testing.T) {
	for _, d := range []Dialect{SQLite, Postgres} {
		compiler := NewSQLCompiler(d)
		for _, filter := range []queryir.Predicate{nil, queryir.At(0), queryir.AllOf()} {
			sql, _, err := compiler.Compile(SiblingQuery{ParentID: "p", Filter: filter})
			require.NoError(t, err)
			assert.Contains(t, sql, " ORDER BY position IS NULL, position ASC, id ", "%s: %s", d, sql)
		}
	}
}

func TestCompile_PostgresPlaceholders(t *testing.T) {
	compiler := NewSQLCompiler(Postgres)

	sql, params, err := compiler.Compile(SiblingQuery{
		ParentID: "p1",
		Filter:   queryir.AllOf(queryir.Between(0, 4), queryir.ExcludeID{ID: "x"}),
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "parent_id = $1 AND ((position > $2 AND position < $3) AND id <> $4)")
	assert.Contains(t, sql, `id COLLATE "C" ASC`)
	assert.NotContains(t, sql, "?")
	assert.Len(t, params, 4)
}

type bogusPredicate struct{ queryir.Predicate }

func TestCompile_UnsupportedPredicate(t *testing.T) {
	compiler := NewSQLCompiler(SQLite)

	_, _, err := compiler.Compile(SiblingQuery{Filter: bogusPredicate{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported predicate type")
}

func TestCompileUpdate(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		fields  node.Fields
		sql     string
		params  []any
	}{
		{
			name:    "position only",
			dialect: SQLite,
			fields:  node.PositionField(4),
			sql:     "UPDATE nodes SET position = ? WHERE id = ?",
			params:  []any{int64(4), "n1"},
		},
		{
			name:    "parent only",
			dialect: SQLite,
			fields:  node.ParentField("p2"),
			sql:     "UPDATE nodes SET parent_id = ? WHERE id = ?",
			params:  []any{"p2", "n1"},
		},
		{
			name:    "position and root parent",
			dialect: Postgres,
			fields:  node.PositionField(0).WithParent(""),
			sql:     "UPDATE nodes SET position = $1, parent_id = $2 WHERE id = $3",
			params:  []any{int64(0), nil, "n1"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler(tc.dialect).CompileUpdate("n1", tc.fields)
			require.NoError(t, err)
			assert.Equal(t, tc.sql, sql)
			assert.Equal(t, tc.params, params)
		})
	}
}

func TestCompileUpdate_EmptyFields(t *testing.T) {
	_, _, err := NewSQLCompiler(SQLite).CompileUpdate("n1", node.Fields{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fields")
}

func TestCompileGet(t *testing.T) {
	sql, params := NewSQLCompiler(Postgres).CompileGet("n1")
	assert.Equal(t, "SELECT id, parent_id, position, label FROM nodes WHERE id = $1", sql)
	assert.Equal(t, []any{"n1"}, params)
}

func TestDialectString(t *testing.T) {
	assert.Equal(t, "sqlite", SQLite.String())
	assert.Equal(t, "postgres", Postgres.String())
	assert.Equal(t, "Dialect(9)", Dialect(9).String())
}
