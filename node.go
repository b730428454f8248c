package jsondb

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/queryir"
)

// Node is a handle onto one stored value.
//
// The concrete type follows the row's type when the node was made:
// *DictNode, *ListNode, *StringNode, *NumberNode or *PlainNode. A node never
// changes type; after a write that may retype the row, use the Node returned
// by the write or call Refresh.
//
// Nodes compare, order and hash by their materialized data, so two nodes
// over different rows holding equal values are Equal.
type Node interface {
	// ID returns the row id.
	ID() int64
	// Type returns the row type the node was made for.
	Type() Type
	// Data materializes the value, resolving links.
	Data(ctx context.Context) (any, error)
	// Len returns the entry count of a Dict or List, or the rune count of
	// a string. Other scalars have no length.
	Len(ctx context.Context) (int, error)
	// Link returns the row's link path, or "" if it has none.
	Link(ctx context.Context) (string, error)
	// SetLink points the row at path; "" clears the link.
	SetLink(ctx context.Context, path string) error
	Equal(ctx context.Context, other any) (bool, error)
	Compare(ctx context.Context, other any) (int, error)
	Hash(ctx context.Context) (string, error)
	// Replace overwrites the value in place. The row id is kept.
	Replace(ctx context.Context, value any) (Node, error)
	// Remove deletes the value and everything beneath it. Removing a dict
	// entry's value removes the entry.
	Remove(ctx context.Context) error
	// Refresh re-reads the row and returns a node of its current type.
	Refresh(ctx context.Context) (Node, error)
	// Query evaluates path with this node standing in for $.
	Query(path string) *Result

	base() *node
}

type node struct {
	db  *DB
	id  int64
	typ Type
}

func (db *DB) wrap(row ir.Row) Node {
	n := node{db: db, id: row.ID, typ: row.Type}
	switch row.Type {
	case ir.TypeDict:
		return &DictNode{n}
	case ir.TypeList:
		return &ListNode{n}
	case ir.TypeStr:
		return &StringNode{n}
	case ir.TypeInt, ir.TypeFloat:
		return &NumberNode{n}
	}
	return &PlainNode{n}
}

func (n *node) base() *node {
	return n
}

func (n *node) ID() int64 {
	return n.id
}

func (n *node) Type() Type {
	return n.typ
}

func (n *node) String() string {
	return fmt.Sprintf("%s(%d)", n.typ, n.id)
}

func (n *node) row(ctx context.Context) (ir.Row, error) {
	return n.db.store.GetRow(ctx, n.id)
}

func (n *node) Data(ctx context.Context) (any, error) {
	row, err := n.row(ctx)
	if err != nil {
		return nil, err
	}
	return n.db.codec.MaterializeRow(ctx, row, nil)
}

func (n *node) Len(ctx context.Context) (int, error) {
	row, err := n.row(ctx)
	if err != nil {
		return 0, err
	}
	switch {
	case row.HasLink():
		v, err := n.db.codec.MaterializeRow(ctx, row, nil)
		if err != nil {
			return 0, err
		}
		return valueLen(v)
	case row.Type.IsContainer():
		return int(row.Count()), nil
	}
	return valueLen(row.Value)
}

func valueLen(v any) (int, error) {
	switch v := v.(type) {
	case string:
		return utf8.RuneCountInString(v), nil
	case []any:
		return len(v), nil
	case map[string]any:
		return len(v), nil
	}
	return 0, fmt.Errorf("len of %T: %w", v, ir.ErrUnsupportedOperation)
}

func (n *node) Link(ctx context.Context) (string, error) {
	row, err := n.row(ctx)
	if err != nil {
		return "", err
	}
	return row.Link, nil
}

func (n *node) SetLink(ctx context.Context, path string) error {
	return n.db.UpdateLink(ctx, n.id, path)
}

// operand materializes other if it is a Node and normalizes it otherwise.
func operand(ctx context.Context, other any) (any, error) {
	if o, ok := other.(Node); ok {
		return o.Data(ctx)
	}
	return ir.Normalize(other)
}

func (n *node) Equal(ctx context.Context, other any) (bool, error) {
	a, err := n.Data(ctx)
	if err != nil {
		return false, err
	}
	b, err := operand(ctx, other)
	if err != nil {
		return false, err
	}
	return ir.Equal(a, b), nil
}

func (n *node) Compare(ctx context.Context, other any) (int, error) {
	a, err := n.Data(ctx)
	if err != nil {
		return 0, err
	}
	b, err := operand(ctx, other)
	if err != nil {
		return 0, err
	}
	return ir.Compare(a, b)
}

func (n *node) Hash(ctx context.Context) (string, error) {
	v, err := n.Data(ctx)
	if err != nil {
		return "", err
	}
	return ir.Hash(v)
}

func (n *node) Replace(ctx context.Context, value any) (Node, error) {
	if _, err := n.db.codec.Replace(ctx, n.id, value); err != nil {
		return nil, err
	}
	return n.db.Node(ctx, n.id)
}

func (n *node) Remove(ctx context.Context) error {
	return n.db.codec.Delete(ctx, n.id)
}

func (n *node) Refresh(ctx context.Context) (Node, error) {
	return n.db.Node(ctx, n.id)
}

func (n *node) Query(path string) *Result {
	return n.db.QueryFrom(path, n.id)
}

// set writes v back over this node's own row.
func (n *node) set(ctx context.Context, v any) error {
	_, err := n.db.codec.Replace(ctx, n.id, v)
	return err
}

// childPath is the path of the entry called name, quoted as needed.
func childPath(name string) string {
	p := queryir.Path{Nodes: []queryir.Node{{Tag: queryir.Tag{Axis: queryir.AxisChild, Name: name}}}}
	return p.String()
}

// PlainNode holds a bool or null, or a dict key row.
type PlainNode struct {
	node
}

// Value returns the stored scalar.
func (p *PlainNode) Value(ctx context.Context) (any, error) {
	return p.Data(ctx)
}
