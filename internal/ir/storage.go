package ir

import (
	"fmt"
	"strconv"
)

// EncodeValue converts a normalized value of type t into the form stored in
// the value column. Bools are stored as 0/1 so predicates can compare them
// against integer literals.
func EncodeValue(t Type, v any) (any, error) {
	switch t {
	case TypeNull:
		return nil, nil
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %T stored as %s", ErrUnsupportedType, v, t)
		}
		return int64(boolInt(b)), nil
	case TypeInt, TypeList, TypeDict:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("%w: %T stored as %s", ErrUnsupportedType, v, t)
		}
		return n, nil
	case TypeFloat:
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: %T stored as %s", ErrUnsupportedType, v, t)
		}
		return f, nil
	case TypeStr, TypeKey:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %T stored as %s", ErrUnsupportedType, v, t)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: type tag %d", ErrUnsupportedType, int(t))
}

// DecodeValue converts a raw value column (as returned by the SQL driver)
// back into the document value for type t.
func DecodeValue(t Type, raw any) (any, error) {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	switch t {
	case TypeNull:
		return nil, nil
	case TypeBool:
		n, err := decodeInt(raw)
		if err != nil {
			return nil, err
		}
		return n != 0, nil
	case TypeInt:
		return decodeInt(raw)
	case TypeList, TypeDict:
		if raw == nil {
			return int64(0), nil
		}
		return decodeInt(raw)
	case TypeFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", t, err)
			}
			return f, nil
		}
	case TypeStr, TypeKey:
		switch v := raw.(type) {
		case string:
			return v, nil
		case nil:
			return "", nil
		default:
			return fmt.Sprint(v), nil
		}
	}
	return nil, fmt.Errorf("%w: cannot decode %T as %s", ErrUnsupportedType, raw, t)
}

func decodeInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case bool:
		return int64(boolInt(v)), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode int: %w", err)
		}
		return n, nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("%w: cannot decode %T as int", ErrUnsupportedType, raw)
}
