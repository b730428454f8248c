package jsondb

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/jsondb/internal/ir"
)

// StringNode is a string value. Positions count runes, not bytes.
type StringNode struct {
	node
}

// Value returns the string.
func (s *StringNode) Value(ctx context.Context) (string, error) {
	v, err := s.Data(ctx)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("string %d holds %T: %w", s.id, v, ir.ErrUnsupportedOperation)
	}
	return str, nil
}

// Concat appends suffix.
func (s *StringNode) Concat(ctx context.Context, suffix string) error {
	str, err := s.Value(ctx)
	if err != nil {
		return err
	}
	return s.set(ctx, str+suffix)
}

// Repeat makes the string n copies of itself. n <= 0 empties it.
func (s *StringNode) Repeat(ctx context.Context, n int) error {
	str, err := s.Value(ctx)
	if err != nil {
		return err
	}
	return s.set(ctx, strings.Repeat(str, max(n, 0)))
}

// SetChar replaces the rune at i with ch, which must be a single rune.
func (s *StringNode) SetChar(ctx context.Context, i int, ch string) error {
	if utf8.RuneCountInString(ch) != 1 {
		return fmt.Errorf("set char %q: want one character: %w", ch, ir.ErrUnsupportedOperation)
	}
	str, err := s.Value(ctx)
	if err != nil {
		return err
	}
	runes := []rune(str)
	pos, ok := ir.NormalizeIndex(len(runes), i)
	if !ok {
		return fmt.Errorf("set char %d of %d: %w", i, len(runes), ir.ErrIndex)
	}
	runes[pos], _ = utf8.DecodeRuneInString(ch)
	return s.set(ctx, string(runes))
}

// SetSlice replaces the runes selected by start:end:step with repl. A
// contiguous slice (step nil or 1) may change the length; an extended slice
// needs exactly one replacement rune per selected position.
func (s *StringNode) SetSlice(ctx context.Context, start, end, step *int, repl string) error {
	str, err := s.Value(ctx)
	if err != nil {
		return err
	}
	runes := []rune(str)
	with := []rune(repl)

	if step == nil || *step == 1 {
		lo, hi := span(len(runes), start, end)
		out := make([]rune, 0, len(runes)-(hi-lo)+len(with))
		out = append(out, runes[:lo]...)
		out = append(out, with...)
		out = append(out, runes[hi:]...)
		return s.set(ctx, string(out))
	}

	idx, err := ir.SliceIndices(len(runes), start, end, step)
	if err != nil {
		return err
	}
	if len(idx) != len(with) {
		return fmt.Errorf("assign %d characters to extended slice of %d: %w", len(with), len(idx), ir.ErrUnsupportedOperation)
	}
	for i, pos := range idx {
		runes[pos] = with[i]
	}
	return s.set(ctx, string(runes))
}

// span resolves contiguous slice bounds to 0 <= lo <= hi <= n.
func span(n int, start, end *int) (lo, hi int) {
	bound := func(p *int, omitted int) int {
		if p == nil {
			return omitted
		}
		i := *p
		if i < 0 {
			i += n
		}
		return min(max(i, 0), n)
	}
	lo, hi = bound(start, 0), bound(end, n)
	return lo, max(hi, lo)
}

// Index returns the rune position of the first sub, or ErrNotFound.
func (s *StringNode) Index(ctx context.Context, sub string) (int, error) {
	str, err := s.Value(ctx)
	if err != nil {
		return 0, err
	}
	b := strings.Index(str, sub)
	if b < 0 {
		return 0, fmt.Errorf("substring %q: %w", sub, ir.ErrNotFound)
	}
	return utf8.RuneCountInString(str[:b]), nil
}

// Count returns the number of non-overlapping occurrences of sub.
func (s *StringNode) Count(ctx context.Context, sub string) (int, error) {
	str, err := s.Value(ctx)
	if err != nil {
		return 0, err
	}
	return strings.Count(str, sub), nil
}

// Contains reports whether sub occurs in the string.
func (s *StringNode) Contains(ctx context.Context, sub string) (bool, error) {
	str, err := s.Value(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(str, sub), nil
}
