package ir

import "fmt"

// SliceIndices returns the positions selected by start:end:step over a
// sequence of length n. Nil bounds are omitted bounds. Semantics follow
// the usual half-open slice rules with negative positions counted from the
// end, out-of-range bounds clamped, and a negative step walking backwards
// from the end. A zero step is ErrUnsupportedOperation.
func SliceIndices(n int, start, end, step *int) ([]int, error) {
	st := 1
	if step != nil {
		st = *step
	}
	if st == 0 {
		return nil, fmt.Errorf("%w: slice step cannot be zero", ErrUnsupportedOperation)
	}

	lower, upper := 0, n
	if st < 0 {
		lower, upper = -1, n-1
	}

	clamp := func(p *int, omitted int) int {
		if p == nil {
			return omitted
		}
		i := *p
		if i < 0 {
			i += n
			if i < lower {
				i = lower
			}
		} else if i > upper {
			i = upper
		}
		return i
	}

	var from, to int
	if st > 0 {
		from, to = clamp(start, lower), clamp(end, upper)
	} else {
		from, to = clamp(start, upper), clamp(end, lower)
	}

	var out []int
	if st > 0 {
		for i := from; i < to; i += st {
			out = append(out, i)
		}
	} else {
		for i := from; i > to; i += st {
			out = append(out, i)
		}
	}
	return out, nil
}

// NormalizeIndex resolves a possibly negative position against length n.
// ok is false when the position is out of range.
func NormalizeIndex(n, i int) (int, bool) {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
