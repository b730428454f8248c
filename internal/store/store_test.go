package store

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsondb/internal/ir"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_ReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.InitRoot(ctx, ir.TypeDict, nil))
	_, err = s1.Insert(ctx, ir.RootID, ir.TypeKey, "a")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	rows, err := s2.AllRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[1].Value)
}

func TestOpen_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	tables := getTables(t, s)
	for _, table := range []string{"jsondata", "settings"} {
		assert.Contains(t, tables, table, "table %q missing after idempotent opens", table)
	}

	var version int
	q, err := s.q(ctx)
	require.NoError(t, err)
	require.NoError(t, q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Overwrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.InitRoot(ctx, ir.TypeList, nil))
	require.NoError(t, s1.SetLinkKey(ctx, "$ref"))
	require.NoError(t, s1.Close())

	s2, err := Open(path, WithOverwrite(true))
	require.NoError(t, err)
	defer s2.Close()

	ok, err := s2.HasRoot(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "overwrite must drop the old document")

	_, found, err := s2.LinkKey(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Contains(t, getIndexes(t, s2), "jsondata_idx_type_value")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_InMemory(t *testing.T) {
	ctx := context.Background()
	s1, err := Open("")
	require.NoError(t, err)
	defer s1.Close()
	s2, err := Open("")
	require.NoError(t, err)
	defer s2.Close()

	assert.NotEqual(t, s1.Path(), s2.Path(), "each in-memory store gets its own database")
	require.NoError(t, s1.InitRoot(ctx, ir.TypeDict, nil))

	ok, err := s2.HasRoot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

func TestClose_MultipleCalls(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err = s.GetRow(context.Background(), ir.RootID)
	assert.Error(t, err, "operations after Close must fail")
}

func TestRollback_DiscardsPendingWrites(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.InitRoot(ctx, ir.TypeDict, nil))
	require.NoError(t, s.Commit())

	_, err := s.Insert(ctx, ir.RootID, ir.TypeKey, "gone")
	require.NoError(t, err)
	require.NoError(t, s.Rollback())

	rows, err := s.AllRows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// Rollback and Commit without an open transaction are no-ops.
	assert.NoError(t, s.Rollback())
	assert.NoError(t, s.Commit())
}

// Pragma tests

func TestPragmas(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		assert.NoError(t, s.verifyPragma(ctx, tt.name, tt.expected))
	}
}

// Schema tests

func TestSchema_JSONDataTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s, "jsondata")
	assert.Equal(t, []string{"id", "parent", "type", "value", "link"}, columns)

	indexes := getIndexes(t, s)
	assert.Contains(t, indexes, "jsondata_idx_composite")
	assert.Contains(t, indexes, "jsondata_idx_type_value")
}

func getTables(t *testing.T, s *Store) []string {
	t.Helper()
	return queryNames(t, s, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
}

func getIndexes(t *testing.T, s *Store) []string {
	t.Helper()
	return queryNames(t, s, "SELECT name FROM sqlite_master WHERE type='index' AND tbl_name='jsondata' ORDER BY name")
}

func getTableColumns(t *testing.T, s *Store, table string) []string {
	t.Helper()
	return queryNames(t, s, "SELECT name FROM pragma_table_info('"+table+"') ORDER BY cid")
}

func queryNames(t *testing.T, s *Store, query string) []string {
	t.Helper()

	rows, err := s.Query(context.Background(), query)
	if err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan name: %v", err)
		}
		names = append(names, name)
	}
	return slices.Clip(names)
}
