package codec

import (
	"context"
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/store"
)

// Feed appends data under the row parent and returns the ids of the List
// and Dict rows it created, in creation order.
//
//   - A Dict fed into a Dict merges into it: each entry replaces any key of
//     the same name. Fed into a List or Key it becomes a new Dict row.
//   - A List always becomes a new List row.
//   - A scalar is appended to a List or becomes the value of a Key.
//
// Feeding into a Key replaces the value it held. Feeding into a scalar root
// retypes the root in place. Any other scalar parent, and any non-Dict
// value fed into a Dict, fails with ir.ErrIllegalStructure.
//
// The entry named by the link key is stored as the Dict row's link and not
// as an entry.
func (c *Codec) Feed(ctx context.Context, data any, parent int64) ([]int64, error) {
	v, err := ir.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	row, err := c.store.GetRow(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("feed into %d: %w", parent, err)
	}

	switch {
	case row.Type.IsScalar():
		if parent != ir.RootID {
			return nil, fmt.Errorf("feed into %s row %d: %w", row.Type, parent, ir.ErrIllegalStructure)
		}
		return c.fill(ctx, row, v)
	case row.Type == ir.TypeKey:
		if err := c.store.Remove(ctx, parent, true, false); err != nil {
			return nil, fmt.Errorf("feed into key %d: %w", parent, err)
		}
	}

	return c.write(ctx, row, func(b *batch) (int64, error) {
		return b.attach(ctx, row, v)
	})
}

// write collects new rows through fn, inserts them in one batch and adds
// the number of direct children fn attached to the count of at.
func (c *Codec) write(ctx context.Context, at ir.Row, fn func(b *batch) (int64, error)) ([]int64, error) {
	next, err := c.store.NextID(ctx)
	if err != nil {
		return nil, err
	}
	b := &batch{codec: c, next: next}
	added, err := fn(b)
	if err != nil {
		return nil, err
	}
	if err := c.store.BatchInsert(ctx, b.rows); err != nil {
		return nil, err
	}
	if at.Type.IsContainer() && added != 0 {
		if err := c.store.IncrementCount(ctx, at.ID, added); err != nil {
			return nil, err
		}
	}
	c.logger.Debug("feed", "parent", at.ID, "rows", len(b.rows), "containers", len(b.created))
	return b.created, nil
}

// batch lays out new rows depth-first with ids reserved from next, so
// sibling order follows document order even across nesting levels.
type batch struct {
	codec   *Codec
	next    int64
	rows    []store.Pending
	created []int64
}

// attach adds v under an existing row and returns how many direct children
// the row gained.
func (b *batch) attach(ctx context.Context, parent ir.Row, v any) (int64, error) {
	m, isDict := v.(map[string]any)
	if parent.Type == ir.TypeDict {
		if !isDict {
			return 0, fmt.Errorf("feed %T into dict %d: %w", v, parent.ID, ir.ErrIllegalStructure)
		}
		return b.merge(ctx, parent.ID, m)
	}
	if err := b.add(parent.ID, v); err != nil {
		return 0, err
	}
	return 1, nil
}

// merge adds the entries of m to an existing Dict, removing keys it
// replaces.
func (b *batch) merge(ctx context.Context, dict int64, m map[string]any) (int64, error) {
	st := b.codec.store
	var added int64
	for _, k := range ir.SortedKeys(m) {
		if k == b.codec.linkKey {
			link, err := b.codec.linkPath(m[k])
			if err != nil {
				return 0, err
			}
			if err := st.UpdateLink(ctx, dict, link); err != nil {
				return 0, err
			}
			continue
		}

		keyID, _, found, err := st.FindKey(ctx, dict, k)
		if err != nil {
			return 0, err
		}
		if found {
			if err := st.Remove(ctx, keyID, true, true); err != nil {
				return 0, fmt.Errorf("replace key %q: %w", k, err)
			}
		}

		key := b.push(store.Pending{Parent: dict, Type: ir.TypeKey, Value: k})
		if err := b.add(key, m[k]); err != nil {
			return 0, fmt.Errorf("[%q]: %w", k, err)
		}
		added++
	}
	return added, nil
}

// add lays out v as a new subtree under parent.
func (b *batch) add(parent int64, v any) error {
	switch val := v.(type) {
	case map[string]any:
		var link string
		keys := make([]string, 0, len(val))
		for _, k := range ir.SortedKeys(val) {
			if k != b.codec.linkKey {
				keys = append(keys, k)
				continue
			}
			l, err := b.codec.linkPath(val[k])
			if err != nil {
				return err
			}
			link = l
		}

		id := b.push(store.Pending{Parent: parent, Type: ir.TypeDict, Value: int64(len(keys)), Link: link})
		b.created = append(b.created, id)
		for _, k := range keys {
			key := b.push(store.Pending{Parent: id, Type: ir.TypeKey, Value: k})
			if err := b.add(key, val[k]); err != nil {
				return fmt.Errorf("[%q]: %w", k, err)
			}
		}

	case []any:
		id := b.push(store.Pending{Parent: parent, Type: ir.TypeList, Value: int64(len(val))})
		b.created = append(b.created, id)
		for i, elem := range val {
			if err := b.add(id, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}

	default:
		t, err := ir.TypeOf(v)
		if err != nil {
			return err
		}
		b.push(store.Pending{Parent: parent, Type: t, Value: v})
	}
	return nil
}

func (b *batch) push(p store.Pending) int64 {
	p.ID = b.next
	b.next++
	b.rows = append(b.rows, p)
	return p.ID
}
