package ir

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", int64(42), "42"},
		{"negative int", int64(-100), "-100"},
		{"max int64", int64(math.MaxInt64), "9223372036854775807"},
		{"float", 3.5, "3.5"},
		{"integral float", 2.0, "2.0"},
		{"negative float", -0.25, "-0.25"},
		{"large float", 1e21, "1e+21"},
		{"bool true", true, "true"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array", []any{int64(1), "two", nil}, `[1,"two",null]`},
		{"plain int", 7, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := map[string]any{
		"z": map[string]any{"b": int64(1), "a": int64(2)},
		"a": int64(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair 0xD800 0xDC00, which sorts
	// before U+E000 in UTF-16 but after it in UTF-8.
	obj := map[string]any{
		"\uE000":     int64(1),
		"\U00010000": int64(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical("<script>a & b</script>")
	require.NoError(t, err)
	assert.Equal(t, `"<script>a & b</script>"`, string(result))
	assert.NotContains(t, string(result), `\u003c`)
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	result, err := MarshalCanonical("q\"b\\n\nt\t\x01")
	require.NoError(t, err)
	assert.Equal(t, `"q\"b\\n\nt\t\u0001"`, string(result))

	// Output must stay valid JSON.
	var back string
	require.NoError(t, json.Unmarshal(result, &back))
	assert.Equal(t, "q\"b\\n\nt\t\x01", back)
}

func TestMarshalCanonicalU2028U2029NotEscaped(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	composed, err := MarshalCanonical(map[string]any{"caf\u00E9": "caf\u00E9"})
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(map[string]any{"cafe\u0301": "cafe\u0301"})
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical([]any{f})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedType)
	}
}

func TestMarshalCanonicalRejectsUnsupported(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestMarshalCanonicalNamedTypes(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{"tags": []string{"b", "a"}, "n": map[string]int{"x": 1}})
	require.NoError(t, err)
	assert.Equal(t, `{"n":{"x":1},"tags":["b","a"]}`, string(result))
}

func TestMarshalIndent(t *testing.T) {
	result, err := MarshalIndent(map[string]any{"b": []any{int64(1)}, "a": true}, "  ")
	require.NoError(t, err)
	expected := strings.Join([]string{
		"{",
		`  "a": true,`,
		`  "b": [`,
		"    1",
		"  ]",
		"}",
	}, "\n")
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalIdempotent(t *testing.T) {
	original := map[string]any{
		"nested": map[string]any{"list": []any{int64(1), 2.5, "x", false, nil}},
		"simple": "value",
	}

	first, err := MarshalCanonical(original)
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(string(first)))
	dec.UseNumber()
	var raw any
	require.NoError(t, dec.Decode(&raw))
	back, err := Normalize(raw)
	require.NoError(t, err)

	second, err := MarshalCanonical(back)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
