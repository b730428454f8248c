package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{"int", 3, int64(3)},
		{"int32", int32(-4), int64(-4)},
		{"uint8", uint8(9), int64(9)},
		{"float32", float32(0.5), 0.5},
		{"json int", json.Number("12"), int64(12)},
		{"json float", json.Number("1.0"), 1.0},
		{"json exponent", json.Number("1e3"), 1000.0},
		{"string slice", []string{"a"}, []any{"a"}},
		{"int map", map[string]int{"a": 1}, map[string]any{"a": int64(1)}},
		{"nested", map[string]any{"l": []any{1, nil}}, map[string]any{"l": []any{int64(1), nil}}},
		{"nil slice", []int(nil), []any{}},
		{"pointer", ptr("x"), "x"},
		{"nil pointer", (*string)(nil), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"struct", struct{ A int }{1}},
		{"channel", make(chan int)},
		{"int keys", map[int]string{1: "a"}},
		{"uint overflow", uint64(math.MaxUint64)},
		{"nested func", []any{func() {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedType)
		})
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		input    any
		expected Type
	}{
		{nil, TypeNull},
		{true, TypeBool},
		{int64(1), TypeInt},
		{1.5, TypeFloat},
		{"s", TypeStr},
		{[]any{}, TypeList},
		{map[string]any{}, TypeDict},
	}

	for _, tt := range tests {
		got, err := TypeOf(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "TypeOf(%#v)", tt.input)
	}

	_, err := TypeOf(3)
	assert.ErrorIs(t, err, ErrUnsupportedType, "TypeOf expects normalized values")
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "DICT", TypeDict.String())
	assert.Equal(t, "Type(42)", Type(42).String())

	got, err := ParseType("key")
	require.NoError(t, err)
	assert.Equal(t, TypeKey, got)

	_, err = ParseType("UNICODE")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	assert.True(t, TypeList.IsContainer())
	assert.False(t, TypeKey.IsContainer())
	assert.True(t, TypeNull.IsScalar())
	assert.False(t, TypeDict.IsScalar())
}

func TestSortedKeysRFC8785Order(t *testing.T) {
	m := map[string]any{"a": 1, "A": 2, "aa": 3, "aA": 4, "Aa": 5, "AA": 6}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, SortedKeys(m))
	assert.Empty(t, SortedKeys(map[string]any{}))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(int64(1), 1.0))
	assert.True(t, Equal(nil, nil))
	assert.True(t, Equal(
		map[string]any{"a": []any{int64(1), "x"}},
		map[string]any{"a": []any{1.0, "x"}},
	))
	assert.False(t, Equal(true, int64(1)))
	assert.False(t, Equal([]any{int64(1)}, []any{int64(1), int64(2)}))
	assert.False(t, Equal(map[string]any{"a": nil}, map[string]any{"b": nil}))
	assert.False(t, Equal("1", int64(1)))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b     any
		expected int
	}{
		{int64(1), int64(2), -1},
		{int64(3), 2.5, 1},
		{2.0, int64(2), 0},
		{"b", "a", 1},
		{false, true, -1},
		{[]any{int64(1), int64(2)}, []any{int64(1), int64(3)}, -1},
		{[]any{int64(1)}, []any{int64(1), int64(0)}, -1},
	}

	for _, tt := range tests {
		got, err := Compare(tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "Compare(%#v, %#v)", tt.a, tt.b)
	}

	_, err := Compare("a", int64(1))
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
	_, err = Compare(map[string]any{}, map[string]any{})
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestEncodeDecodeValue(t *testing.T) {
	raw, err := EncodeValue(TypeBool, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), raw)

	back, err := DecodeValue(TypeBool, raw)
	require.NoError(t, err)
	assert.Equal(t, true, back)

	s, err := DecodeValue(TypeStr, []byte("text"))
	require.NoError(t, err)
	assert.Equal(t, "text", s)

	f, err := DecodeValue(TypeFloat, int64(2))
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)

	n, err := DecodeValue(TypeDict, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = EncodeValue(TypeInt, "x")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func ptr[T any](v T) *T { return &v }
