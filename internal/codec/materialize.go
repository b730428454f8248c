package codec

import (
	"context"
	"fmt"

	"github.com/roach88/jsondb/internal/engine"
	"github.com/roach88/jsondb/internal/ir"
)

// Materialize rebuilds the value stored at id. A Key row materializes as a
// one-entry map. Rows carrying a link materialize as the value their link
// resolves to, or nil when it matches nothing.
func (c *Codec) Materialize(ctx context.Context, id int64) (any, error) {
	return c.materialize(ctx, id, c.engine.NewLinkGuard())
}

// MaterializeRow is Materialize for a row already in hand; guard carries
// the links being resolved by the caller, if any.
func (c *Codec) MaterializeRow(ctx context.Context, row ir.Row, guard *engine.LinkGuard) (any, error) {
	if guard == nil {
		guard = c.engine.NewLinkGuard()
	}
	if row.HasLink() {
		return c.resolve(ctx, row, guard)
	}
	if row.Type.IsScalar() {
		return row.Value, nil
	}
	return c.materialize(ctx, row.ID, guard)
}

// materialize loads the whole subtree in one query and assembles it in
// memory.
func (c *Codec) materialize(ctx context.Context, id int64, guard *engine.LinkGuard) (any, error) {
	rows, err := c.store.Subtree(ctx, id)
	if err != nil {
		return nil, err
	}
	t := tree{codec: c, guard: guard, children: make(map[int64][]ir.Row, len(rows))}
	var top ir.Row
	for _, r := range rows {
		if r.ID == id {
			top = r
			continue
		}
		t.children[r.Parent] = append(t.children[r.Parent], r)
	}
	return t.build(ctx, top)
}

func (c *Codec) resolve(ctx context.Context, row ir.Row, guard *engine.LinkGuard) (any, error) {
	var out any
	err := c.engine.WithLinkTarget(ctx, row, guard, func(target ir.Row, found bool) error {
		if !found {
			return nil
		}
		v, err := c.MaterializeRow(ctx, target, guard)
		out = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type tree struct {
	codec    *Codec
	guard    *engine.LinkGuard
	children map[int64][]ir.Row
}

func (t *tree) build(ctx context.Context, row ir.Row) (any, error) {
	if row.HasLink() {
		return t.codec.resolve(ctx, row, t.guard)
	}

	kids := t.children[row.ID]
	switch row.Type {
	case ir.TypeKey:
		name, _ := row.Value.(string)
		v, err := t.only(ctx, row)
		if err != nil {
			return nil, err
		}
		return map[string]any{name: v}, nil

	case ir.TypeDict:
		out := make(map[string]any, len(kids))
		for _, k := range kids {
			if k.Type != ir.TypeKey {
				return nil, fmt.Errorf("%w: %s row %d under dict %d", ir.ErrIllegalStructure, k.Type, k.ID, row.ID)
			}
			v, err := t.only(ctx, k)
			if err != nil {
				return nil, err
			}
			out[k.Value.(string)] = v
		}
		return out, nil

	case ir.TypeList:
		out := make([]any, 0, len(kids))
		for _, k := range kids {
			v, err := t.build(ctx, k)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return row.Value, nil
}

// only builds the value beneath a Key row. A Key with no value reads as nil.
func (t *tree) only(ctx context.Context, key ir.Row) (any, error) {
	kids := t.children[key.ID]
	if len(kids) == 0 {
		return nil, nil
	}
	return t.build(ctx, kids[0])
}
