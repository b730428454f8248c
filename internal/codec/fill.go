package codec

import (
	"context"
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
)

// Replace overwrites the node at id with data and keeps its row id, so
// anything holding the id sees the new value. A scalar overwritten by a
// scalar of the same type is updated in place; otherwise the row is
// retyped. Any link on the row is cleared unless data declares a new one.
//
// Replace returns the ids of the List and Dict rows created beneath id.
func (c *Codec) Replace(ctx context.Context, id int64, data any) ([]int64, error) {
	v, err := ir.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("replace: %w", err)
	}
	row, err := c.store.GetRow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("replace %d: %w", id, err)
	}
	if row.Type == ir.TypeKey {
		return nil, fmt.Errorf("replace key row %d: %w", id, ir.ErrIllegalStructure)
	}
	return c.fill(ctx, row, v)
}

func (c *Codec) fill(ctx context.Context, row ir.Row, v any) ([]int64, error) {
	t, err := ir.TypeOf(v)
	if err != nil {
		return nil, fmt.Errorf("fill: %w", err)
	}

	if row.Type.IsContainer() {
		if err := c.store.Remove(ctx, row.ID, true, false); err != nil {
			return nil, fmt.Errorf("fill %d: %w", row.ID, err)
		}
	}
	if row.HasLink() {
		if err := c.store.UpdateLink(ctx, row.ID, ""); err != nil {
			return nil, err
		}
	}

	switch {
	case t.IsContainer():
		if row.Type != t {
			if err := c.store.SetRow(ctx, row.ID, t, nil); err != nil {
				return nil, err
			}
		}
		row.Type = t
		return c.fillContainer(ctx, row, v)
	case row.Type == t:
		err = c.store.SetScalarValue(ctx, row.ID, v)
	default:
		err = c.store.SetRow(ctx, row.ID, t, v)
	}
	if err != nil {
		return nil, fmt.Errorf("fill %d: %w", row.ID, err)
	}
	c.logger.Debug("fill", "row", row.ID, "type", t)
	return nil, nil
}

// fillContainer writes the content of v into the empty container row.
func (c *Codec) fillContainer(ctx context.Context, row ir.Row, v any) ([]int64, error) {
	return c.write(ctx, row, func(b *batch) (int64, error) {
		switch val := v.(type) {
		case map[string]any:
			return b.merge(ctx, row.ID, val)
		case []any:
			for i, elem := range val {
				if err := b.add(row.ID, elem); err != nil {
					return 0, fmt.Errorf("[%d]: %w", i, err)
				}
			}
			return int64(len(val)), nil
		}
		return 0, fmt.Errorf("%w: %T is not a container", ir.ErrUnsupportedType, v)
	})
}
