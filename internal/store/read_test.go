package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsondb/internal/ir"
)

func TestGetRow(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tr := createTestTree(t, s)

	row, err := s.GetRow(ctx, tr.yes)
	require.NoError(t, err)
	assert.Equal(t, ir.Row{ID: tr.yes, Parent: tr.keyC, Type: ir.TypeBool, Value: true}, row)

	root, err := s.GetRow(ctx, ir.RootID)
	require.NoError(t, err)
	assert.Equal(t, ir.RootParent, root.Parent)
	assert.Equal(t, int64(2), root.Count())

	_, err = s.GetRow(ctx, 9999)
	assert.ErrorIs(t, err, ir.ErrNotFound)
}

func TestScanChildren_Ordered(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tr := createTestTree(t, s)

	children, err := s.ScanChildren(ctx, tr.list, nil)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, tr.one, children[0].ID)
	assert.Equal(t, int64(1), children[0].Value)
	assert.Equal(t, "x", children[1].Value)

	filtered, err := s.ScanChildren(ctx, ir.RootID, &ChildFilter{Value: "b"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, tr.keyB, filtered[0].ID)

	none, err := s.ScanChildren(ctx, tr.yes, nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFindKey(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tr := createTestTree(t, s)

	keyID, valueID, found, err := s.FindKey(ctx, tr.dict, "c")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, tr.keyC, keyID)
	assert.Equal(t, tr.yes, valueID)

	_, _, found, err = s.FindKey(ctx, tr.dict, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	// Key names are matched under the given parent only.
	_, _, found, err = s.FindKey(ctx, ir.RootID, "c")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNthChild(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tr := createTestTree(t, s)

	first, err := s.NthChild(ctx, tr.list, 0)
	require.NoError(t, err)
	assert.Equal(t, tr.one, first.ID)

	last, err := s.NthChild(ctx, tr.list, -1)
	require.NoError(t, err)
	assert.Equal(t, tr.x, last.ID)

	second, err := s.NthChild(ctx, tr.list, -2)
	require.NoError(t, err)
	assert.Equal(t, tr.one, second.ID)

	_, err = s.NthChild(ctx, tr.list, 2)
	assert.ErrorIs(t, err, ir.ErrIndex)
	_, err = s.NthChild(ctx, tr.list, -3)
	assert.ErrorIs(t, err, ir.ErrIndex)
}

func TestSliceChildren(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tr := createTestTree(t, s)

	step := -1
	rows, err := s.SliceChildren(ctx, tr.list, nil, nil, &step)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, tr.x, rows[0].ID)
	assert.Equal(t, tr.one, rows[1].ID)

	zero := 0
	_, err = s.SliceChildren(ctx, tr.list, nil, nil, &zero)
	assert.ErrorIs(t, err, ir.ErrUnsupportedOperation)
}

func TestAncestorTest(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tr := createTestTree(t, s)

	tests := []struct {
		name       string
		id         int64
		candidates []int64
		expected   bool
	}{
		{"self", tr.dict, []int64{tr.dict}, true},
		{"parent", tr.yes, []int64{tr.keyC}, true},
		{"root", tr.yes, []int64{ir.RootID}, true},
		{"sibling branch", tr.yes, []int64{tr.list, tr.keyA}, false},
		{"descendant is not ancestor", tr.keyB, []int64{tr.yes}, false},
		{"empty set", tr.yes, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.AncestorTest(ctx, tt.id, tt.candidates)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSubtree(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tr := createTestTree(t, s)

	rows, err := s.Subtree(ctx, tr.keyB)
	require.NoError(t, err)

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	assert.Equal(t, []int64{tr.keyB, tr.dict, tr.keyC, tr.yes}, ids)

	_, err = s.Subtree(ctx, 4242)
	assert.ErrorIs(t, err, ir.ErrNotFound)
}

func TestChildCountMatchesCache(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tr := createTestTree(t, s)

	for _, id := range []int64{ir.RootID, tr.list, tr.dict} {
		row, err := s.GetRow(ctx, id)
		require.NoError(t, err)
		n, err := s.ChildCount(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, n, row.Count(), "row %d", id)
	}
}

func TestDumpRows(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	tr := createTestTree(t, s)
	require.NoError(t, s.UpdateLink(ctx, tr.dict, "$.a"))

	var buf bytes.Buffer
	require.NoError(t, s.DumpRows(ctx, &buf))

	out := buf.String()
	assert.Contains(t, out, "parent")
	assert.Contains(t, out, "LINK: $.a")
	assert.Contains(t, out, "BOOL")
	assert.Equal(t, 10, bytes.Count(buf.Bytes(), []byte("\n")), "header plus nine rows")
}
