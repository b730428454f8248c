package engine

import (
	"context"
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/querysql"
	"github.com/roach88/jsondb/internal/queryir"
)

// applyFilter narrows rows by one bracketed filter.
func (e *Engine) applyFilter(ctx context.Context, rows []ir.Row, f queryir.Filter) ([]ir.Row, error) {
	switch f := f.(type) {
	case queryir.Predicate:
		return e.applyPredicate(ctx, rows, f.Expr)
	case queryir.Union:
		return applyUnion(rows, f)
	}
	return nil, fmt.Errorf("%w: filter %T", ir.ErrUnsupportedOperation, f)
}

// applyPredicate evaluates expr for every row in one statement and keeps
// the rows it holds for, in their original order.
func (e *Engine) applyPredicate(ctx context.Context, rows []ir.Row, expr queryir.Expr) ([]ir.Row, error) {
	q, args, err := querysql.CompilePredicate(expr, rowIDs(rows))
	if err != nil {
		return nil, err
	}
	ids, err := e.store.QueryIDs(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("predicate: %w", err)
	}

	keep := make(map[int64]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out := make([]ir.Row, 0, len(ids))
	for _, r := range rows {
		if keep[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// applyUnion resolves each selector against rows and concatenates the
// picks in selector order. A row picked twice is kept once; out-of-range
// indices pick nothing.
func applyUnion(rows []ir.Row, u queryir.Union) ([]ir.Row, error) {
	n := len(rows)
	seen := make(map[int64]bool, n)
	out := make([]ir.Row, 0, n)
	pick := func(i int) {
		r := rows[i]
		if seen[r.ID] {
			return
		}
		seen[r.ID] = true
		out = append(out, r)
	}

	for _, sel := range u.Selectors {
		switch s := sel.(type) {
		case queryir.Index:
			if i, ok := ir.NormalizeIndex(n, s.Value); ok {
				pick(i)
			}
		case queryir.Slice:
			idx, err := ir.SliceIndices(n, s.Start, s.End, s.Step)
			if err != nil {
				return nil, err
			}
			for _, i := range idx {
				pick(i)
			}
		case queryir.Wildcard:
			for i := range n {
				pick(i)
			}
		default:
			return nil, fmt.Errorf("%w: selector %T", ir.ErrUnsupportedOperation, sel)
		}
	}
	return out, nil
}
