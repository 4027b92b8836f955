// Package querysql compiles sibling queries into parameterized SQL for the
// SQLite and PostgreSQL stores.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/queryir"
)

// Dialect selects placeholder and collation syntax.
type Dialect int

const (
	// SQLite uses ? placeholders and COLLATE BINARY.
	SQLite Dialect = iota
	// Postgres uses $n placeholders and COLLATE "C".
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// DefaultTable is the table every store keeps its nodes in.
const DefaultTable = "nodes"

// selectColumns is the fixed column list scanned by the stores.
const selectColumns = "id, parent_id, position, label"

// SiblingQuery selects members of one sibling group.
type SiblingQuery struct {
	ParentID string            // "" selects the root group
	Filter   queryir.Predicate // nil = whole group
}

// SQLCompiler compiles sibling queries and record updates to SQL.
//
// CRITICAL: ALL selects end in the same ORDER BY so every store returns
// siblings ascending by position, unplaced last, ties by binary ID order.
// CRITICAL: All values are parameterized, never interpolated.
type SQLCompiler struct {
	Dialect Dialect
	Table   string
}

// NewSQLCompiler creates a compiler for the given dialect over DefaultTable.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{Dialect: d, Table: DefaultTable}
}

// builder tracks the parameter list so placeholders can be numbered.
type builder struct {
	dialect Dialect
	params  []any
}

func (b *builder) bind(v any) string {
	b.params = append(b.params, v)
	if b.dialect == Postgres {
		return fmt.Sprintf("$%d", len(b.params))
	}
	return "?"
}

// Compile converts a sibling query to (sql, params).
func (c *SQLCompiler) Compile(q SiblingQuery) (string, []any, error) {
	b := &builder{dialect: c.Dialect}

	where := c.groupClause(b, q.ParentID)
	if q.Filter != nil {
		filterSQL, err := c.compilePredicate(b, q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where += " AND " + filterSQL
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		selectColumns,
		c.Table,
		where,
		c.OrderBy())

	return sql, b.params, nil
}

// CompileGet selects one node by ID.
func (c *SQLCompiler) CompileGet(id string) (string, []any) {
	b := &builder{dialect: c.Dialect}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", selectColumns, c.Table, b.bind(id))
	return sql, b.params
}

// CompileUpdate writes the set fields of f for exactly one node.
func (c *SQLCompiler) CompileUpdate(id string, f node.Fields) (string, []any, error) {
	if f.Empty() {
		return "", nil, fmt.Errorf("update %s: no fields to write", id)
	}

	b := &builder{dialect: c.Dialect}
	var sets []string
	if f.SetPosition {
		sets = append(sets, "position = "+b.bind(f.Position))
	}
	if f.SetParent {
		sets = append(sets, "parent_id = "+b.bind(nullable(f.ParentID)))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		c.Table,
		strings.Join(sets, ", "),
		b.bind(id))

	return sql, b.params, nil
}

// OrderBy returns the mandatory ORDER BY expression.
// NULL positions sort last in both dialects because "position IS NULL" is
// false (0) for placed rows.
func (c *SQLCompiler) OrderBy() string {
	return "position IS NULL, position ASC, id " + c.binaryCollation() + " ASC"
}

func (c *SQLCompiler) binaryCollation() string {
	if c.Dialect == Postgres {
		return `COLLATE "C"`
	}
	return "COLLATE BINARY"
}

// groupClause restricts a query to one sibling group.
func (c *SQLCompiler) groupClause(b *builder, parentID string) string {
	if parentID == "" {
		return "parent_id IS NULL"
	}
	return "parent_id = " + b.bind(parentID)
}

// compilePredicate compiles a queryir.Predicate to a WHERE fragment.
func (c *SQLCompiler) compilePredicate(b *builder, p queryir.Predicate) (string, error) {
	if p == nil {
		return "1 = 1", nil
	}

	switch pred := p.(type) {
	case queryir.PositionEquals:
		return "position = " + b.bind(pred.Value), nil
	case *queryir.PositionEquals:
		return "position = " + b.bind(pred.Value), nil
	case queryir.PositionGreater:
		return "position > " + b.bind(pred.Value), nil
	case *queryir.PositionGreater:
		return "position > " + b.bind(pred.Value), nil
	case queryir.PositionLess:
		return "position < " + b.bind(pred.Value), nil
	case *queryir.PositionLess:
		return "position < " + b.bind(pred.Value), nil
	case queryir.PositionBetween:
		return c.compileBetween(b, pred), nil
	case *queryir.PositionBetween:
		return c.compileBetween(b, *pred), nil
	case queryir.ExcludeID:
		return "id <> " + b.bind(pred.ID), nil
	case *queryir.ExcludeID:
		return "id <> " + b.bind(pred.ID), nil
	case queryir.And:
		return c.compileAnd(b, pred)
	case *queryir.And:
		return c.compileAnd(b, *pred)
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileBetween(b *builder, pred queryir.PositionBetween) string {
	low := b.bind(pred.Low)
	high := b.bind(pred.High)
	return fmt.Sprintf("(position > %s AND position < %s)", low, high)
}

func (c *SQLCompiler) compileAnd(b *builder, and queryir.And) (string, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil // vacuous truth
	}

	parts := make([]string, 0, len(and.Predicates))
	for _, sub := range and.Predicates {
		sql, err := c.compilePredicate(b, sub)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}

	return "(" + strings.Join(parts, " AND ") + ")", nil
}

// nullable maps the empty parent to SQL NULL.
func nullable(parentID string) any {
	if parentID == "" {
		return nil
	}
	return parentID
}
