package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/treeorder/internal/node"
)

// Insert adds a node. A node with Placed == false is stored with a NULL
// position; call the engine's AssignDefaultPosition afterwards to place it.
//
// Returns ErrConflict if the ID is already taken.
func (s *Store) Insert(ctx context.Context, n node.Node) error {
	var position any
	if n.Placed {
		position = n.Position
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, parent_id, position, label)
		VALUES (?, ?, ?, ?)
	`,
		n.ID,
		nullString(n.ParentID),
		position,
		n.Label,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert node %s: %w", n.ID, ErrConflict)
		}
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}

	return nil
}

// Persist writes the set fields of f for exactly one node.
// Returns ErrNotFound if no row was updated.
func (s *Store) Persist(ctx context.Context, id string, f node.Fields) error {
	query, params, err := s.compiler.CompileUpdate(id, f)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("persist %s %s: %w", id, f, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("persist %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("persist %s: %w", id, ErrNotFound)
	}

	return nil
}

// Delete removes a node. Positions of its former siblings are not touched;
// the group has a gap until the caller closes it.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete node %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete node %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation reports a primary key or unique constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
