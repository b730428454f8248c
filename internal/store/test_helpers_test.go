package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/jsondb/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
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

// testTree is the rows of {"a": [1, "x"], "b": {"c": true}} built by hand.
type testTree struct {
	keyA, list, one, x int64
	keyB, dict, keyC   int64
	yes                int64
}

// createTestTree inserts testTree under a Dict root, maintaining counts the
// way the codec does.
func createTestTree(t *testing.T, s *Store) testTree {
	t.Helper()
	ctx := context.Background()

	var tr testTree
	must := func(id int64, err error) int64 {
		t.Helper()
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		return id
	}
	count := func(id int64) {
		t.Helper()
		if err := s.IncrementCount(ctx, id, 1); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	if err := s.InitRoot(ctx, ir.TypeDict, nil); err != nil {
		t.Fatalf("InitRoot() failed: %v", err)
	}
	tr.keyA = must(s.Insert(ctx, ir.RootID, ir.TypeKey, "a"))
	count(ir.RootID)
	tr.list = must(s.Insert(ctx, tr.keyA, ir.TypeList, nil))
	tr.one = must(s.Insert(ctx, tr.list, ir.TypeInt, int64(1)))
	count(tr.list)
	tr.x = must(s.Insert(ctx, tr.list, ir.TypeStr, "x"))
	count(tr.list)
	tr.keyB = must(s.Insert(ctx, ir.RootID, ir.TypeKey, "b"))
	count(ir.RootID)
	tr.dict = must(s.Insert(ctx, tr.keyB, ir.TypeDict, nil))
	tr.keyC = must(s.Insert(ctx, tr.dict, ir.TypeKey, "c"))
	count(tr.dict)
	tr.yes = must(s.Insert(ctx, tr.keyC, ir.TypeBool, true))
	return tr
}
