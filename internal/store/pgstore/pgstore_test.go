package pgstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/ordering"
	"github.com/roach88/treeorder/internal/queryir"
	"github.com/roach88/treeorder/internal/store"
)

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("treeorder_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       4,
		MigrateOnStart: true,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s
}

func seed(t *testing.T, s *Store, parentID string, ids ...string) {
	t.Helper()
	for i, id := range ids {
		require.NoError(t, s.Insert(context.Background(), node.Node{ID: id, ParentID: parentID}.At(int64(i))))
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{DSN: "postgres://localhost/x"}
	cfg.defaults()

	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, int32(1), cfg.MinConns)
	assert.Equal(t, 5*time.Minute, cfg.MaxConnLifetime)
	assert.False(t, cfg.MigrateOnStart)
}

func TestListMigrations(t *testing.T) {
	migrations, err := listMigrations()
	require.NoError(t, err)

	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].version)
	assert.Equal(t, "001_create_nodes.sql", migrations[0].name)
	assert.Equal(t, 2, migrations[1].version)
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := New(context.Background(), Config{DSN: "::not a dsn::"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing DSN")
}

func TestStore_CRUD(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	n := node.Node{ID: "a", ParentID: "p", Label: "first"}.At(0)
	require.NoError(t, s.Insert(ctx, n))
	assert.ErrorIs(t, s.Insert(ctx, n), store.ErrConflict)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, n, got)

	require.NoError(t, s.Persist(ctx, "a", node.PositionField(4).WithParent("")))
	got, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.IsRoot())
	assert.Equal(t, int64(4), got.Position)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Persist(ctx, "a", node.PositionField(0)), store.ErrNotFound)
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	s := setupTestDB(t)
	require.NoError(t, s.migrate(context.Background()))
}

func TestStore_SiblingQueries(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	seed(t, s, "p", "a", "B", "c", "d")
	seed(t, s, "", "r0", "r1")
	require.NoError(t, s.Insert(ctx, node.Node{ID: "u", ParentID: "p"}))

	c, err := s.Get(ctx, "c")
	require.NoError(t, err)

	all, err := s.SiblingsAndSelf(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "B", "c", "d", "u"}, node.IDs(all))

	higher, err := s.SiblingsWhere(ctx, c, queryir.Less(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "B"}, node.IDs(higher))

	roots, err := s.Roots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r0", "r1"}, node.IDs(roots))

	parents, err := s.Parents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "p"}, parents)
}

func TestStore_EngineScenario(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	e := ordering.New(s, ordering.WithVerify(true))

	seed(t, s, "p", "A", "B", "C", "D")
	get := func(id string) node.Node {
		n, err := s.Get(ctx, id)
		require.NoError(t, err)
		return n
	}

	require.NoError(t, e.MoveUp(ctx, get("C")))
	require.NoError(t, e.MoveToTop(ctx, get("D")))
	require.NoError(t, e.MoveAbove(ctx, get("B"), get("D")))

	group, err := s.Children(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D", "A", "C"}, node.IDs(group))
	assert.Equal(t, []int64{0, 1, 2, 3}, node.Positions(group))
}
