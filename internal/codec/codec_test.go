package codec

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsondb/internal/engine"
	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/store"
	"github.com/roach88/jsondb/internal/testutil"
)

func newTestCodec(t *testing.T, opts ...Option) (*Codec, *store.Store) {
	t.Helper()
	s := testutil.OpenStore(t)
	return New(engine.New(s), opts...), s
}

func initCodec(t *testing.T, doc any, opts ...Option) (*Codec, *store.Store) {
	t.Helper()
	c, s := newTestCodec(t, opts...)
	require.NoError(t, c.Init(context.Background(), doc))
	return c, s
}

func materialize(t *testing.T, c *Codec, id int64) any {
	t.Helper()
	v, err := c.Materialize(context.Background(), id)
	require.NoError(t, err)
	return v
}

func normalized(t *testing.T, v any) any {
	t.Helper()
	n, err := ir.Normalize(v)
	require.NoError(t, err)
	return n
}

// first returns the first row a path matches.
func first(t *testing.T, c *Codec, path string) ir.Row {
	t.Helper()
	row, found, err := c.engine.First(context.Background(), path, ir.RootID)
	require.NoError(t, err)
	require.True(t, found, path)
	return row
}

// assertCountsConsistent checks every container's cached count against a
// scan of its children.
func assertCountsConsistent(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	rows, err := s.AllRows(ctx)
	require.NoError(t, err)
	for _, row := range rows {
		if !row.Type.IsContainer() {
			continue
		}
		n, err := s.ChildCount(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, n, row.Count(), "row %d", row.ID)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  any
	}{
		{"bookstore", testutil.Bookstore()},
		{"nested", map[string]any{
			"a": map[string]any{
				"b": map[string]any{
					"c": []any{1, -2, 3.5, -0.25, "x", nil, true, false},
				},
				"empty_dict": map[string]any{},
				"empty_list": []any{},
			},
			"unicode": "héllo wörld ✓ 𝄞",
			"ключ":    "значение",
			"":        "empty key",
		}},
		{"list root", []any{[]any{[]any{}}, map[string]any{"k": []any{1, 2}}, "s", 0}},
		{"mixed list order", []any{1, []any{2}, 3, map[string]any{"x": 4}, 5}},
		{"empty dict root", map[string]any{}},
		{"empty list root", []any{}},
		{"string root", "just a string"},
		{"int root", int64(42)},
		{"float root", -1.5},
		{"bool root", true},
		{"null root", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, s := initCodec(t, tt.doc)
			want := normalized(t, tt.doc)
			if diff := cmp.Diff(want, materialize(t, c, ir.RootID)); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			assertCountsConsistent(t, s)
		})
	}
}

func TestInit_RowLayout(t *testing.T) {
	ctx := context.Background()
	_, s := initCodec(t, map[string]any{
		"d": map[string]any{ir.DefaultLinkKey: "$.a"},
		"c": nil,
		"a": []any{1, map[string]any{"b": true}},
	})

	var buf bytes.Buffer
	require.NoError(t, s.DumpRows(ctx, &buf))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "init_rows", buf.Bytes())
}

func TestFeed_DocumentOrder(t *testing.T) {
	c, _ := initCodec(t, map[string]any{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"x": map[string]any{"y": 2}},
	})

	rows, err := c.engine.Rows(context.Background(), "$..x", ir.RootID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Value)
	assert.Equal(t, ir.TypeDict, rows[1].Type)
}

func TestFeed_ReturnsCreatedContainers(t *testing.T) {
	ctx := context.Background()
	c, s := initCodec(t, map[string]any{})

	ids, err := c.Feed(ctx, map[string]any{"x": []any{1, map[string]any{}, []any{}}}, ir.RootID)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	types := make([]ir.Type, len(ids))
	for i, id := range ids {
		row, err := s.GetRow(ctx, id)
		require.NoError(t, err)
		types[i] = row.Type
	}
	assert.Equal(t, []ir.Type{ir.TypeList, ir.TypeDict, ir.TypeList}, types)
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])

	ids, err = c.Feed(ctx, map[string]any{"y": 1}, ir.RootID)
	require.NoError(t, err)
	assert.Empty(t, ids, "merging into the root dict creates no containers")
}

func TestFeed_MergeReplacesKeys(t *testing.T) {
	ctx := context.Background()
	c, s := initCodec(t, map[string]any{"a": 1, "b": map[string]any{"deep": []any{1, 2}}})
	old := first(t, c, "$.b")

	_, err := c.Feed(ctx, map[string]any{"a": 3, "b": "flat", "c": true}, ir.RootID)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": int64(3), "b": "flat", "c": true}, materialize(t, c, ir.RootID))

	_, err = s.GetRow(ctx, old.ID)
	assert.ErrorIs(t, err, ir.ErrNotFound, "replaced subtree is gone")

	root, err := s.GetRow(ctx, ir.RootID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), root.Count())
	assertCountsConsistent(t, s)
}

func TestFeed_IntoNestedDict(t *testing.T) {
	ctx := context.Background()
	c, _ := initCodec(t, map[string]any{"cfg": map[string]any{"a": 1}})
	cfg := first(t, c, "$.cfg")

	ids, err := c.Feed(ctx, map[string]any{"b": 2}, cfg.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2)}, materialize(t, c, cfg.ID))
}

func TestFeed_AppendsToList(t *testing.T) {
	ctx := context.Background()
	c, s := initCodec(t, []any{1})

	_, err := c.Feed(ctx, 2, ir.RootID)
	require.NoError(t, err)
	ids, err := c.Feed(ctx, []any{3}, ir.RootID)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	_, err = c.Feed(ctx, map[string]any{"k": "v"}, ir.RootID)
	require.NoError(t, err)

	want := []any{int64(1), int64(2), []any{int64(3)}, map[string]any{"k": "v"}}
	assert.Equal(t, want, materialize(t, c, ir.RootID))
	assertCountsConsistent(t, s)
}

func TestFeed_IntoKeyReplacesValue(t *testing.T) {
	ctx := context.Background()
	c, s := initCodec(t, map[string]any{"a": []any{1, 2}})

	keyID, _, found, err := s.FindKey(ctx, ir.RootID, "a")
	require.NoError(t, err)
	require.True(t, found)

	_, err = c.Feed(ctx, "scalar", keyID)
	require.NoError(t, err)

	children, err := s.ScanChildren(ctx, keyID, nil)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, map[string]any{"a": "scalar"}, materialize(t, c, ir.RootID))
	assert.Equal(t, map[string]any{"a": "scalar"}, materialize(t, c, keyID))
}

func TestFeed_ScalarRootIsRetyped(t *testing.T) {
	ctx := context.Background()
	c, s := initCodec(t, 5)

	_, err := c.Feed(ctx, map[string]any{"a": 1}, ir.RootID)
	require.NoError(t, err)

	typ, err := s.RootType(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.TypeDict, typ)
	assert.Equal(t, map[string]any{"a": int64(1)}, materialize(t, c, ir.RootID))
}

func TestFeed_Errors(t *testing.T) {
	ctx := context.Background()
	c, s := initCodec(t, map[string]any{"n": 1, "l": []any{}})
	n := first(t, c, "$.n")

	_, err := c.Feed(ctx, 2, n.ID)
	assert.ErrorIs(t, err, ir.ErrIllegalStructure, "scalar parent")

	_, err = c.Feed(ctx, []any{1}, ir.RootID)
	assert.ErrorIs(t, err, ir.ErrIllegalStructure, "list into dict")

	_, err = c.Feed(ctx, "x", ir.RootID)
	assert.ErrorIs(t, err, ir.ErrIllegalStructure, "scalar into dict")

	_, err = c.Feed(ctx, map[string]any{"c": make(chan int)}, ir.RootID)
	assert.ErrorIs(t, err, ir.ErrUnsupportedType)

	_, err = c.Feed(ctx, map[string]any{"a": 1}, 999)
	assert.ErrorIs(t, err, ir.ErrNotFound)

	_, err = c.Feed(ctx, map[string]any{ir.DefaultLinkKey: 7}, ir.RootID)
	assert.ErrorIs(t, err, ir.ErrUnsupportedType)

	_, err = c.Feed(ctx, map[string]any{"x": map[string]any{ir.DefaultLinkKey: "$.["}}, ir.RootID)
	assert.ErrorIs(t, err, ir.ErrSyntax)

	assertCountsConsistent(t, s)
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	c, s := initCodec(t, map[string]any{"l": []any{1, 2, 3}, "s": "old", "n": 1})
	l := first(t, c, "$.l")
	str := first(t, c, "$.s")

	t.Run("container keeps its id", func(t *testing.T) {
		_, err := c.Replace(ctx, l.ID, map[string]any{"now": "dict"})
		require.NoError(t, err)
		row, err := s.GetRow(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, ir.TypeDict, row.Type)
		assert.Equal(t, int64(1), row.Count())
		assert.Equal(t, map[string]any{"now": "dict"}, materialize(t, c, l.ID))
	})

	t.Run("scalar in place", func(t *testing.T) {
		_, err := c.Replace(ctx, str.ID, "new")
		require.NoError(t, err)
		row, err := s.GetRow(ctx, str.ID)
		require.NoError(t, err)
		assert.Equal(t, ir.TypeStr, row.Type)
		assert.Equal(t, "new", row.Value)
	})

	t.Run("scalar retyped", func(t *testing.T) {
		_, err := c.Replace(ctx, str.ID, []any{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, materialize(t, c, str.ID))
	})

	t.Run("key rows are refused", func(t *testing.T) {
		keyID, _, _, err := s.FindKey(ctx, ir.RootID, "n")
		require.NoError(t, err)
		_, err = c.Replace(ctx, keyID, 2)
		assert.ErrorIs(t, err, ir.ErrIllegalStructure)
	})

	assert.Equal(t, map[string]any{
		"l": map[string]any{"now": "dict"},
		"s": []any{"a", "b"},
		"n": int64(1),
	}, materialize(t, c, ir.RootID))
	assertCountsConsistent(t, s)
}

func TestDelete_RemovesWholeSubtree(t *testing.T) {
	ctx := context.Background()
	c, s := initCodec(t, testutil.Bookstore())
	book := first(t, c, "$.store.book")

	subtree, err := s.Subtree(ctx, book.ID)
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, book.ID))

	for _, r := range subtree {
		_, err := s.GetRow(ctx, r.ID)
		assert.ErrorIs(t, err, ir.ErrNotFound, "row %d", r.ID)
	}
	for _, path := range []string{"$.store.book", "$..title", "$..author", "$.store.book[0]"} {
		rows, err := c.engine.Rows(ctx, path, ir.RootID)
		require.NoError(t, err)
		assert.Empty(t, rows, path)
	}
	assert.NotContains(t, materialize(t, c, first(t, c, "$.store").ID), "book")
	assertCountsConsistent(t, s)
}

func TestLinks_Materialize(t *testing.T) {
	ctx := context.Background()
	c, s := initCodec(t, map[string]any{
		"a":     map[string]any{"x": 1},
		"alias": map[string]any{ir.DefaultLinkKey: "$.a"},
		"deep":  map[string]any{ir.DefaultLinkKey: "$.a.x"},
		"gone":  map[string]any{ir.DefaultLinkKey: "$.missing"},
	})

	assert.Equal(t, map[string]any{
		"a":     map[string]any{"x": int64(1)},
		"alias": map[string]any{"x": int64(1)},
		"deep":  int64(1),
		"gone":  nil,
	}, materialize(t, c, ir.RootID))

	// Changing the target changes the resolution.
	x := first(t, c, "$.a.x")
	_, err := c.Replace(ctx, x.ID, 2)
	require.NoError(t, err)
	alias := first(t, c, "$.alias")
	assert.Equal(t, map[string]any{"x": int64(2)}, materialize(t, c, alias.ID))

	// So does pointing the link elsewhere.
	require.NoError(t, s.UpdateLink(ctx, alias.ID, "$.deep"))
	assert.Equal(t, int64(2), materialize(t, c, alias.ID))

	// Replacing the aliasing node drops its link.
	_, err = c.Replace(ctx, alias.ID, "plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", materialize(t, c, alias.ID))
}

func TestLinks_MergeSetsAndClears(t *testing.T) {
	ctx := context.Background()
	c, _ := initCodec(t, map[string]any{"a": 1, "b": map[string]any{}})
	b := first(t, c, "$.b")

	_, err := c.Feed(ctx, map[string]any{ir.DefaultLinkKey: "$.a"}, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), materialize(t, c, b.ID))

	_, err = c.Feed(ctx, map[string]any{ir.DefaultLinkKey: nil}, b.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, materialize(t, c, b.ID))
}

func TestLinks_CustomKey(t *testing.T) {
	c, _ := initCodec(t, map[string]any{
		"a":               "target",
		"b":               map[string]any{"$ref": "$.a"},
		ir.DefaultLinkKey: "literal",
	}, WithLinkKey("$ref"))

	assert.Equal(t, "$ref", c.LinkKey())
	assert.Equal(t, map[string]any{
		"a":               "target",
		"b":               "target",
		ir.DefaultLinkKey: "literal",
	}, materialize(t, c, ir.RootID))
}

func TestLinks_Cycles(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{"mutual", map[string]any{
			"a": map[string]any{ir.DefaultLinkKey: "$.b"},
			"b": map[string]any{ir.DefaultLinkKey: "$.a"},
		}},
		{"self", map[string]any{
			"a": map[string]any{ir.DefaultLinkKey: "$.a"},
		}},
		{"ancestor", map[string]any{
			"a": map[string]any{"inner": map[string]any{"up": map[string]any{ir.DefaultLinkKey: "$.a"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := initCodec(t, tt.doc)
			_, err := c.Materialize(context.Background(), ir.RootID)
			require.Error(t, err)
			assert.True(t, engine.IsCycleError(err), "got %v", err)
			assert.ErrorIs(t, err, ir.ErrLinkCycle)
		})
	}
}

func TestLinks_SharedTargetIsNotACycle(t *testing.T) {
	c, _ := initCodec(t, map[string]any{
		"t":  []any{1, 2},
		"l1": map[string]any{ir.DefaultLinkKey: "$.t"},
		"l2": map[string]any{ir.DefaultLinkKey: "$.t"},
		"l3": map[string]any{ir.DefaultLinkKey: "$.l1"},
	})
	list := []any{int64(1), int64(2)}
	assert.Equal(t, map[string]any{"t": list, "l1": list, "l2": list, "l3": list}, materialize(t, c, ir.RootID))
}

func TestMaterializeRow(t *testing.T) {
	ctx := context.Background()
	c, _ := initCodec(t, map[string]any{"a": []any{"x"}, "b": map[string]any{ir.DefaultLinkKey: "$.a"}})

	v, err := c.MaterializeRow(ctx, first(t, c, "$.a[0]"), nil)
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = c.MaterializeRow(ctx, first(t, c, "$.b"), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, v)

	_, err = c.Materialize(ctx, 12345)
	assert.ErrorIs(t, err, ir.ErrNotFound)
}
