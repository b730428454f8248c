package ir

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"unicode/utf16"
)

// Normalize converts a caller value into the document shape described in
// the package doc. Integers of any width become int64, floats become
// float64, json.Number picks Int when it has no fraction or exponent.
// Slices, arrays and string-keyed maps are converted recursively.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint:
		return normalizeUint(uint64(val))
	case uint64:
		return normalizeUint(val)
	case float32:
		return float64(val), nil
	case json.Number:
		return normalizeNumber(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := Normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	}
	return normalizeReflect(reflect.ValueOf(v))
}

func normalizeUint(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedType, u)
	}
	return int64(u), nil
}

func normalizeNumber(n json.Number) (any, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: number %q", ErrUnsupportedType, s)
	}
	return f, nil
}

// normalizeReflect handles named slice and map types such as []string or
// map[string]int that the fast path does not cover.
func normalizeReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return normalizeUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			n, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key %s", ErrUnsupportedType, rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			n, err := Normalize(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case reflect.Invalid:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
}

// TypeOf returns the row type tag for a normalized value.
func TypeOf(v any) (Type, error) {
	switch v.(type) {
	case nil:
		return TypeNull, nil
	case bool:
		return TypeBool, nil
	case int64:
		return TypeInt, nil
	case float64:
		return TypeFloat, nil
	case string:
		return TypeStr, nil
	case []any:
		return TypeList, nil
	case map[string]any:
		return TypeDict, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// SortedKeys returns map keys in RFC 8785 order (UTF-16 code units).
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
// Go's native string order is UTF-8 bytes, which differs above U+FFFF.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// Equal compares two normalized values structurally. Int and Float compare
// numerically, so 1 equals 1.0; bools never equal numbers.
func Equal(a, b any) bool {
	if x, y, ok := numericPair(a, b); ok {
		return x == y
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two normalized values. Numbers, strings, bools and lists
// (lexicographically) are ordered; any other pairing is ErrUnsupportedOperation.
func Compare(a, b any) (int, error) {
	if x, y, ok := numericPair(a, b); ok {
		return cmp.Compare(x, y), nil
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return cmp.Compare(boolInt(av), boolInt(bv)), nil
		}
	case []any:
		if bv, ok := b.([]any); ok {
			for i := 0; i < len(av) && i < len(bv); i++ {
				c, err := Compare(av[i], bv[i])
				if err != nil {
					return 0, err
				}
				if c != 0 {
					return c, nil
				}
			}
			return cmp.Compare(len(av), len(bv)), nil
		}
	}
	return 0, fmt.Errorf("%w: cannot order %T and %T", ErrUnsupportedOperation, a, b)
}

func numericPair(a, b any) (float64, float64, bool) {
	x, ok := asFloat(a)
	if !ok {
		return 0, 0, false
	}
	y, ok := asFloat(b)
	if !ok {
		return 0, 0, false
	}
	// Two ints compare exactly.
	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return float64(cmp.Compare(ai, bi)), 0, true
		}
	}
	return x, y, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
