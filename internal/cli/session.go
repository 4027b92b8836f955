package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/treeorder/internal/lock"
	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/ordering"
	"github.com/roach88/treeorder/internal/store"
	"github.com/roach88/treeorder/internal/store/pgstore"
)

// nodeStore is the part of a store backend the commands use.
// Satisfied by store.Store and pgstore.Store.
type nodeStore interface {
	ordering.SiblingStore
	Insert(ctx context.Context, n node.Node) error
	Get(ctx context.Context, id string) (node.Node, error)
	Children(ctx context.Context, parentID string) ([]node.Node, error)
	Parents(ctx context.Context) ([]string, error)
}

// session bundles an open store with an engine bound to it.
type session struct {
	store  nodeStore
	engine *ordering.Engine
	close  []func()
}

// openSession opens the backend named by --db and, with --redis, a shared
// group locker. The caller must call Close.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	s := &session{}

	if isPostgresDSN(opts.Database) {
		slog.Debug("opening postgres store")
		pg, err := pgstore.New(ctx, pgstore.Config{DSN: opts.Database, MigrateOnStart: true})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		s.store = pg
		s.close = append(s.close, pg.Close)
	} else {
		slog.Debug("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		s.store = st
		s.close = append(s.close, func() {
			if err := st.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		})
	}

	var engineOpts []ordering.Option
	if opts.RedisURL != "" {
		locker, err := lock.NewRedis(lock.RedisOptions{URL: opts.RedisURL})
		if err != nil {
			s.Close()
			return nil, WrapExitError(ExitCommandError, "failed to connect to Redis", err)
		}
		s.close = append(s.close, func() { _ = locker.Close() })
		engineOpts = append(engineOpts, ordering.WithLocker(locker))
	}
	s.engine = ordering.New(s.store, engineOpts...)

	return s, nil
}

// Close releases everything openSession acquired, newest first.
func (s *session) Close() {
	for i := len(s.close) - 1; i >= 0; i-- {
		s.close[i]()
	}
}

// get loads a node, mapping a missing ID to a command error.
func (s *session) get(ctx context.Context, id string) (node.Node, error) {
	n, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return node.Node{}, NewExitError(ExitCommandError, fmt.Sprintf("node not found: %s", id))
	}
	if err != nil {
		return node.Node{}, WrapExitError(ExitCommandError, "failed to load node", err)
	}
	return n, nil
}

func isPostgresDSN(db string) bool {
	return strings.HasPrefix(db, "postgres://") || strings.HasPrefix(db, "postgresql://")
}

// formatter builds the output formatter for a command.
func formatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}
