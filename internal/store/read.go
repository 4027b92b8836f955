package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/queryir"
	"github.com/roach88/treeorder/internal/querysql"
)

// Get returns the node with the given ID. Returns ErrNotFound if no such
// node exists.
func (s *Store) Get(ctx context.Context, id string) (node.Node, error) {
	query, params := s.compiler.CompileGet(id)
	row := s.db.QueryRowContext(ctx, query, params...)

	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return node.Node{}, ErrNotFound
	}
	if err != nil {
		return node.Node{}, fmt.Errorf("get node %s: %w", id, err)
	}
	return n, nil
}

// Children returns the sibling group under parentID ("" for roots).
// Results are ordered deterministically: position ASC, unplaced last,
// ties by id COLLATE BINARY.
//
// Returns an empty slice (not nil) if the group is empty.
func (s *Store) Children(ctx context.Context, parentID string) ([]node.Node, error) {
	return s.selectGroup(ctx, querysql.SiblingQuery{ParentID: parentID})
}

// Roots returns the root group.
func (s *Store) Roots(ctx context.Context) ([]node.Node, error) {
	return s.Children(ctx, "")
}

// Parents returns every distinct group key in use, sorted by binary order.
// "" stands for the root group.
func (s *Store) Parents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT COALESCE(parent_id, '') AS parent
		FROM nodes
		ORDER BY parent COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query parents: %w", err)
	}
	defer rows.Close()

	parents := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan parent: %w", err)
		}
		parents = append(parents, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parents: %w", err)
	}
	return parents, nil
}

// Siblings returns n's group without n.
func (s *Store) Siblings(ctx context.Context, n node.Node) ([]node.Node, error) {
	return s.SiblingsWhere(ctx, n, nil)
}

// SiblingsAndSelf returns n's group including n.
func (s *Store) SiblingsAndSelf(ctx context.Context, n node.Node) ([]node.Node, error) {
	return s.Children(ctx, n.ParentID)
}

// SiblingsWhere returns n's group without n, filtered by pred.
func (s *Store) SiblingsWhere(ctx context.Context, n node.Node, pred queryir.Predicate) ([]node.Node, error) {
	filter := queryir.Predicate(queryir.ExcludeID{ID: n.ID})
	if pred != nil {
		filter = queryir.AllOf(filter, pred)
	}
	return s.selectGroup(ctx, querysql.SiblingQuery{ParentID: n.ParentID, Filter: filter})
}

// selectGroup runs a compiled sibling query.
func (s *Store) selectGroup(ctx context.Context, q querysql.SiblingQuery) ([]node.Node, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile sibling query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query siblings: %w", err)
	}
	defer rows.Close()

	nodes := []node.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate siblings: %w", err)
	}

	return nodes, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanNode scans one row in querysql column order.
func scanNode(row scanner) (node.Node, error) {
	var (
		n        node.Node
		parentID sql.NullString
		position sql.NullInt64
	)

	if err := row.Scan(&n.ID, &parentID, &position, &n.Label); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return node.Node{}, err
		}
		return node.Node{}, fmt.Errorf("scan node: %w", err)
	}

	n.ParentID = parentID.String
	n.Position = position.Int64
	n.Placed = position.Valid
	return n, nil
}
