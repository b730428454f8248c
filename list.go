package jsondb

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/roach88/jsondb/internal/ir"
)

// ListNode is a List value.
type ListNode struct {
	node
}

// Get returns the element at i. Negative positions count from the end.
func (l *ListNode) Get(ctx context.Context, i int) (Node, error) {
	row, err := l.db.store.NthChild(ctx, l.id, int64(i))
	if err != nil {
		return nil, err
	}
	return l.db.wrap(row), nil
}

// Slice returns the elements selected by start:end:step. Nil bounds take
// their defaults.
func (l *ListNode) Slice(ctx context.Context, start, end, step *int) ([]Node, error) {
	rows, err := l.db.store.SliceChildren(ctx, l.id, start, end, step)
	if err != nil {
		return nil, err
	}
	out := make([]Node, len(rows))
	for i, r := range rows {
		out[i] = l.db.wrap(r)
	}
	return out, nil
}

// Set overwrites the element at i, keeping its position.
func (l *ListNode) Set(ctx context.Context, i int, value any) error {
	row, err := l.db.store.NthChild(ctx, l.id, int64(i))
	if err != nil {
		return err
	}
	_, err = l.db.codec.Replace(ctx, row.ID, value)
	return err
}

// Delete removes the element at i.
func (l *ListNode) Delete(ctx context.Context, i int) error {
	row, err := l.db.store.NthChild(ctx, l.id, int64(i))
	if err != nil {
		return err
	}
	return l.db.store.Remove(ctx, row.ID, true, true)
}

// DeleteSlice removes the elements selected by start:end:step.
func (l *ListNode) DeleteSlice(ctx context.Context, start, end, step *int) error {
	rows, err := l.db.store.SliceChildren(ctx, l.id, start, end, step)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := l.db.store.Remove(ctx, r.ID, true, true); err != nil {
			return err
		}
	}
	return nil
}

// Append adds value at the end.
func (l *ListNode) Append(ctx context.Context, value any) error {
	_, err := l.db.codec.Feed(ctx, value, l.id)
	return err
}

// Extend appends each of values in order.
func (l *ListNode) Extend(ctx context.Context, values []any) error {
	for i, v := range values {
		if _, err := l.db.codec.Feed(ctx, v, l.id); err != nil {
			return fmt.Errorf("extend [%d]: %w", i, err)
		}
	}
	return nil
}

// Repeat makes the list n copies of itself. n <= 0 empties it.
func (l *ListNode) Repeat(ctx context.Context, n int) error {
	if n <= 0 {
		return l.Clear(ctx)
	}
	items, err := l.items(ctx)
	if err != nil {
		return err
	}
	for range n - 1 {
		if err := l.Extend(ctx, items); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes every element.
func (l *ListNode) Clear(ctx context.Context) error {
	return l.db.store.Remove(ctx, l.id, true, false)
}

// Iter yields the elements in order.
func (l *ListNode) Iter(ctx context.Context) iter.Seq2[Node, error] {
	return l.each(ctx, false)
}

// Reversed yields the elements last to first.
func (l *ListNode) Reversed(ctx context.Context) iter.Seq2[Node, error] {
	return l.each(ctx, true)
}

func (l *ListNode) each(ctx context.Context, reverse bool) iter.Seq2[Node, error] {
	return func(yield func(Node, error) bool) {
		rows, err := l.db.store.ScanChildren(ctx, l.id, nil)
		if err != nil {
			yield(nil, err)
			return
		}
		if reverse {
			slices.Reverse(rows)
		}
		for _, r := range rows {
			if !yield(l.db.wrap(r), nil) {
				return
			}
		}
	}
}

// Contains reports whether some element equals value.
func (l *ListNode) Contains(ctx context.Context, value any) (bool, error) {
	v, err := operand(ctx, value)
	if err != nil {
		return false, err
	}
	items, err := l.items(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(items, func(x any) bool { return ir.Equal(x, v) }), nil
}

// Min returns the smallest element. An empty list is ErrIndex.
func (l *ListNode) Min(ctx context.Context) (any, error) {
	return l.extreme(ctx, -1)
}

// Max returns the largest element. An empty list is ErrIndex.
func (l *ListNode) Max(ctx context.Context) (any, error) {
	return l.extreme(ctx, 1)
}

func (l *ListNode) extreme(ctx context.Context, sign int) (any, error) {
	items, err := l.items(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("extreme of empty list %d: %w", l.id, ir.ErrIndex)
	}
	best := items[0]
	for _, x := range items[1:] {
		c, err := ir.Compare(x, best)
		if err != nil {
			return nil, err
		}
		if c*sign > 0 {
			best = x
		}
	}
	return best, nil
}

func (l *ListNode) items(ctx context.Context) ([]any, error) {
	v, err := l.Data(ctx)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("list %d holds %T: %w", l.id, v, ir.ErrUnsupportedOperation)
	}
	return items, nil
}
