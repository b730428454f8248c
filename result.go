package jsondb

import (
	"context"
	"iter"
)

// Result is a query that has not run yet. Each accessor evaluates the path
// afresh against the current state of the document.
type Result struct {
	db    *DB
	path  string
	start int64
}

// Path returns the query path.
func (r *Result) Path() string {
	return r.path
}

// All yields the matching nodes in result order. Rows are read step by step,
// so a mutation made while iterating may or may not be seen.
func (r *Result) All(ctx context.Context) iter.Seq2[Node, error] {
	return func(yield func(Node, error) bool) {
		for row, err := range r.db.engine.Query(ctx, r.path, r.start, false) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(r.db.wrap(row), nil) {
				return
			}
		}
	}
}

// One returns the first match, or nil when nothing matches.
func (r *Result) One(ctx context.Context) (Node, error) {
	row, found, err := r.db.engine.First(ctx, r.path, r.start)
	if err != nil || !found {
		return nil, err
	}
	return r.db.wrap(row), nil
}

// Nodes returns every match.
func (r *Result) Nodes(ctx context.Context) ([]Node, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Node, len(rows))
	for i, row := range rows {
		out[i] = r.db.wrap(row)
	}
	return out, nil
}

// Values materializes every match.
func (r *Result) Values(ctx context.Context) ([]any, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		v, err := r.db.codec.MaterializeRow(ctx, row, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Value materializes the first match. found is false when nothing matches.
func (r *Result) Value(ctx context.Context) (v any, found bool, err error) {
	row, found, err := r.db.engine.First(ctx, r.path, r.start)
	if err != nil || !found {
		return nil, false, err
	}
	v, err = r.db.codec.MaterializeRow(ctx, row, nil)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Rows returns the matching rows as stored.
func (r *Result) Rows(ctx context.Context) ([]Row, error) {
	return r.db.engine.Rows(ctx, r.path, r.start)
}
