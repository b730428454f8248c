package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/querysql"
	"github.com/roach88/jsondb/internal/queryir"
)

// Execute evaluates a parsed path from row start.
//
// The executor carries a frontier of rows between segments. For each
// segment:
//  1. The tag selects candidate rows from the frontier (see selectStep).
//  2. Unless this is the last segment with no filters, the candidates are
//     unfolded: link rows are replaced by their targets and List rows by
//     their elements.
//  3. Filters narrow the candidates left to right.
//  4. The survivors become the next frontier; an empty set ends the query.
//
// The last segment's rows are returned as stored, links included, so a
// path may end exactly at a list or at a link.
func (e *Engine) Execute(ctx context.Context, p queryir.Path, start int64, guard *LinkGuard) ([]ir.Row, error) {
	if len(p.Nodes) == 0 {
		return nil, fmt.Errorf("%w: path has no segments", ir.ErrUnsupportedOperation)
	}

	startRow, err := e.store.GetRow(ctx, start)
	if errors.Is(err, ir.ErrNotFound) {
		return []ir.Row{}, nil
	}
	if err != nil {
		return nil, err
	}
	frontier, err := e.followLinks(ctx, []ir.Row{startRow}, guard)
	if err != nil {
		return nil, err
	}

	for i, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}
		if len(frontier) == 0 {
			return []ir.Row{}, nil
		}
		last := i == len(p.Nodes)-1

		rows, err := e.selectStep(ctx, frontier, node.Tag, guard)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}

		if !last || len(node.Filters) > 0 {
			if rows, err = e.unfold(ctx, rows, guard); err != nil {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
		}

		for _, f := range node.Filters {
			if len(rows) == 0 {
				break
			}
			if rows, err = e.applyFilter(ctx, rows, f); err != nil {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
		}

		if last {
			return rows, nil
		}
		frontier = rows
	}
	return []ir.Row{}, nil
}

// selectStep picks the rows a tag names relative to the frontier.
//
//   - '.name' expands List frontier rows first, then takes the value under
//     each Key row called name.
//   - '.*' takes every direct child, Key rows replaced by their values.
//   - '..name' takes the value under every Key row called name whose Dict
//     is a frontier row or one of its descendants.
//   - '..*' matches nothing.
//   - A self step keeps the frontier.
func (e *Engine) selectStep(ctx context.Context, frontier []ir.Row, tag queryir.Tag, guard *LinkGuard) ([]ir.Row, error) {
	switch tag.Axis {
	case queryir.AxisSelf:
		return frontier, nil

	case queryir.AxisChild:
		if tag.IsWildcard() {
			q, args := querysql.ChildValues(rowIDs(frontier))
			return e.store.QueryRows(ctx, q, args...)
		}
		expanded, err := e.unfold(ctx, frontier, guard)
		if err != nil {
			return nil, err
		}
		if len(expanded) == 0 {
			return []ir.Row{}, nil
		}
		q, args := querysql.ChildrenByKey(rowIDs(expanded), tag.Name)
		return e.store.QueryRows(ctx, q, args...)

	case queryir.AxisDescendant:
		if tag.IsWildcard() {
			return []ir.Row{}, nil
		}
		q, args := querysql.DescendantsByKey(rowIDs(frontier), tag.Name)
		return e.store.QueryRows(ctx, q, args...)
	}
	return nil, fmt.Errorf("%w: axis %d", ir.ErrUnsupportedOperation, tag.Axis)
}

// unfold resolves links, then replaces lists by their elements, then
// resolves any links among those elements.
func (e *Engine) unfold(ctx context.Context, rows []ir.Row, guard *LinkGuard) ([]ir.Row, error) {
	rows, err := e.followLinks(ctx, rows, guard)
	if err != nil {
		return nil, err
	}
	if rows, err = e.expandLists(ctx, rows); err != nil {
		return nil, err
	}
	return e.followLinks(ctx, rows, guard)
}

// expandLists replaces every List row by its elements, in place.
func (e *Engine) expandLists(ctx context.Context, rows []ir.Row) ([]ir.Row, error) {
	var lists []int64
	for _, r := range rows {
		if r.Type == ir.TypeList {
			lists = append(lists, r.ID)
		}
	}
	if len(lists) == 0 {
		return rows, nil
	}

	q, args := querysql.Children(lists)
	children, err := e.store.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("expand lists: %w", err)
	}
	byParent := make(map[int64][]ir.Row, len(lists))
	for _, c := range children {
		byParent[c.Parent] = append(byParent[c.Parent], c)
	}

	out := make([]ir.Row, 0, len(rows)-len(lists)+len(children))
	for _, r := range rows {
		if r.Type == ir.TypeList {
			out = append(out, byParent[r.ID]...)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// followLinks replaces link rows by the rows their links resolve to. Links
// that match nothing are dropped: there is nothing beneath them to select.
func (e *Engine) followLinks(ctx context.Context, rows []ir.Row, guard *LinkGuard) ([]ir.Row, error) {
	var out []ir.Row
	for i, r := range rows {
		if !r.HasLink() {
			if out != nil {
				out = append(out, r)
			}
			continue
		}
		if out == nil {
			out = append(make([]ir.Row, 0, len(rows)), rows[:i]...)
		}
		target, found, err := e.ResolveLink(ctx, r, guard)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, target)
		}
	}
	if out == nil {
		return rows, nil
	}
	return out, nil
}

func rowIDs(rows []ir.Row) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
