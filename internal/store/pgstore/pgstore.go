// Package pgstore provides a PostgreSQL Sibling Store.
// It uses pgx/v5 for connection pooling and shares its SQL with the SQLite
// store through querysql's Postgres dialect.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/ordering"
	"github.com/roach88/treeorder/internal/queryir"
	"github.com/roach88/treeorder/internal/querysql"
	"github.com/roach88/treeorder/internal/store"
)

// Store is a PostgreSQL-backed Sibling Store.
type Store struct {
	pool     *pgxpool.Pool
	compiler *querysql.SQLCompiler
}

// Ensure Store implements ordering.SiblingStore at compile time.
var _ ordering.SiblingStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{
		pool:     pool,
		compiler: querysql.NewSQLCompiler(querysql.Postgres),
	}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Insert adds a node; an unplaced node is stored with a NULL position.
// Returns store.ErrConflict if the ID is already taken.
func (s *Store) Insert(ctx context.Context, n node.Node) error {
	var position *int64
	if n.Placed {
		position = &n.Position
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO nodes (id, parent_id, position, label)
		VALUES ($1, $2, $3, $4)
	`, n.ID, nullString(n.ParentID), position, n.Label)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("inserting node %s: %w", n.ID, store.ErrConflict)
		}
		return fmt.Errorf("inserting node %s: %w", n.ID, err)
	}
	return nil
}

// Get returns the node with the given ID or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (node.Node, error) {
	query, params := s.compiler.CompileGet(id)

	n, err := scanNode(s.pool.QueryRow(ctx, query, params...))
	if errors.Is(err, pgx.ErrNoRows) {
		return node.Node{}, store.ErrNotFound
	}
	if err != nil {
		return node.Node{}, fmt.Errorf("getting node %s: %w", id, err)
	}
	return n, nil
}

// Delete removes a node without touching its former siblings.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM nodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting node %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Children returns the group under parentID ("" for roots), ascending.
func (s *Store) Children(ctx context.Context, parentID string) ([]node.Node, error) {
	return s.selectGroup(ctx, querysql.SiblingQuery{ParentID: parentID})
}

// Roots returns the root group.
func (s *Store) Roots(ctx context.Context) ([]node.Node, error) {
	return s.Children(ctx, "")
}

// Parents returns every distinct group key in use; "" stands for roots.
func (s *Store) Parents(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT COALESCE(parent_id, '') AS parent
		FROM nodes
		ORDER BY parent COLLATE "C" ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying parents: %w", err)
	}

	parents, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning parents: %w", err)
	}
	if parents == nil {
		parents = []string{}
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

// Persist writes the set fields of f for exactly one node.
func (s *Store) Persist(ctx context.Context, id string, f node.Fields) error {
	query, params, err := s.compiler.CompileUpdate(id, f)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("persist %s %s: %w", id, f, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("persist %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) selectGroup(ctx context.Context, q querysql.SiblingQuery) ([]node.Node, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compiling sibling query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying siblings: %w", err)
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
		return nil, fmt.Errorf("iterating siblings: %w", err)
	}
	return nodes, nil
}

// scanNode scans one row in querysql column order.
func scanNode(row pgx.Row) (node.Node, error) {
	var (
		n        node.Node
		parentID *string
		position *int64
	)
	if err := row.Scan(&n.ID, &parentID, &position, &n.Label); err != nil {
		return node.Node{}, err
	}
	if parentID != nil {
		n.ParentID = *parentID
	}
	if position != nil {
		n.Position = *position
		n.Placed = true
	}
	return n, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isDuplicateKey reports a unique_violation (SQLSTATE 23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
