package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/treeorder/internal/node"
)

// createTestStore creates a new file-backed store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedGroup inserts ids under parentID at positions 0..len-1.
func seedGroup(t *testing.T, s *Store, parentID string, ids ...string) {
	t.Helper()
	for i, id := range ids {
		n := node.Node{ID: id, ParentID: parentID}.At(int64(i))
		if err := s.Insert(context.Background(), n); err != nil {
			t.Fatalf("Insert(%s) failed: %v", id, err)
		}
	}
}

// getTableColumns returns all column names for a table.
func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatalf("failed to get table info: %v", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan column: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

// getTableIndexes returns all index names for a table.
func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_index_list(?)", table)
	if err != nil {
		t.Fatalf("failed to get index list: %v", err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
