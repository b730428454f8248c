package jsondb

import (
	"context"
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
)

// DictNode is a Dict value.
type DictNode struct {
	node
}

// Item is one dict entry.
type Item struct {
	Key   string
	Value Node
}

// Get returns the value stored under key, following a link on the dict.
// It returns nil when there is no such key.
func (d *DictNode) Get(ctx context.Context, key string) (Node, error) {
	if key == "" {
		_, id, found, err := d.db.store.FindKey(ctx, d.id, key)
		if err != nil || !found {
			return nil, err
		}
		return d.db.Node(ctx, id)
	}
	return d.db.QueryFrom(childPath(key), d.id).One(ctx)
}

// GetDefault materializes the value under key, or returns def when there is
// no such key.
func (d *DictNode) GetDefault(ctx context.Context, key string, def any) (any, error) {
	n, err := d.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return def, nil
	}
	return n.Data(ctx)
}

// Set stores value under key, replacing any previous entry.
func (d *DictNode) Set(ctx context.Context, key string, value any) error {
	_, err := d.db.codec.Feed(ctx, map[string]any{key: value}, d.id)
	return err
}

// Update stores every entry of entries.
func (d *DictNode) Update(ctx context.Context, entries map[string]any) error {
	_, err := d.db.codec.Feed(ctx, entries, d.id)
	return err
}

// Delete removes the entry under key. Deleting a missing key does nothing.
func (d *DictNode) Delete(ctx context.Context, key string) error {
	keyID, _, found, err := d.db.store.FindKey(ctx, d.id, key)
	if err != nil || !found {
		return err
	}
	if err := d.db.store.Remove(ctx, keyID, true, true); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Contains reports whether the dict has an entry under key.
func (d *DictNode) Contains(ctx context.Context, key string) (bool, error) {
	_, _, found, err := d.db.store.FindKey(ctx, d.id, key)
	return found, err
}

// Keys returns the entry names in storage order.
func (d *DictNode) Keys(ctx context.Context) ([]string, error) {
	rows, err := d.keyRows(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i], _ = r.Value.(string)
	}
	return keys, nil
}

// Items returns the entries in storage order.
func (d *DictNode) Items(ctx context.Context) ([]Item, error) {
	rows, err := d.keyRows(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		kids, err := d.db.store.ScanChildren(ctx, r.ID, nil)
		if err != nil {
			return nil, err
		}
		if len(kids) == 0 {
			return nil, fmt.Errorf("key row %d has no value: %w", r.ID, ir.ErrIllegalStructure)
		}
		name, _ := r.Value.(string)
		items = append(items, Item{Key: name, Value: d.db.wrap(kids[0])})
	}
	return items, nil
}

// Clear removes every entry. A link on the dict is kept.
func (d *DictNode) Clear(ctx context.Context) error {
	return d.db.store.Remove(ctx, d.id, true, false)
}

func (d *DictNode) keyRows(ctx context.Context) ([]ir.Row, error) {
	rows, err := d.db.store.ScanChildren(ctx, d.id, nil)
	if err != nil {
		return nil, err
	}
	keys := rows[:0]
	for _, r := range rows {
		if r.Type == ir.TypeKey {
			keys = append(keys, r)
		}
	}
	return keys, nil
}
