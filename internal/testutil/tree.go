package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/store"
)

// OpenStore opens a file-backed store in a fresh temp directory. The store
// is closed when the test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// BuildTree writes doc as the document root using the row layout the codec
// produces: dict keys in sorted order, each Key row followed by its value,
// container counts maintained. It lets lower layers test against real rows
// without importing the codec.
func BuildTree(t testing.TB, s *store.Store, doc any) {
	t.Helper()
	ctx := context.Background()

	v, err := ir.Normalize(doc)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	typ, err := ir.TypeOf(v)
	if err != nil {
		t.Fatalf("type of root: %v", err)
	}
	if err := s.InitRoot(ctx, typ, v); err != nil {
		t.Fatalf("init root: %v", err)
	}
	buildChildren(t, s, ir.RootID, v)
}

func buildChildren(t testing.TB, s *store.Store, id int64, v any) {
	t.Helper()
	ctx := context.Background()

	insert := func(parent int64, v any) int64 {
		t.Helper()
		typ, err := ir.TypeOf(v)
		if err != nil {
			t.Fatalf("type of %v: %v", v, err)
		}
		child, err := s.Insert(ctx, parent, typ, v)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		buildChildren(t, s, child, v)
		return child
	}
	count := func() {
		t.Helper()
		if err := s.IncrementCount(ctx, id, 1); err != nil {
			t.Fatalf("increment count: %v", err)
		}
	}

	switch v := v.(type) {
	case []any:
		for _, elem := range v {
			insert(id, elem)
			count()
		}
	case map[string]any:
		for _, k := range ir.SortedKeys(v) {
			key, err := s.Insert(ctx, id, ir.TypeKey, k)
			if err != nil {
				t.Fatalf("insert key %q: %v", k, err)
			}
			count()
			insert(key, v[k])
		}
	}
}
