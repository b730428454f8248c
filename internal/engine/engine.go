package engine

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/jsonpath"
	"github.com/roach88/jsondb/internal/queryir"
	"github.com/roach88/jsondb/internal/store"
)

// Engine evaluates path expressions against one row store.
//
// An Engine shares the store's single-writer model: it must not be used
// from more than one goroutine, and a query begun before a mutation in the
// same session sees whatever the store holds when each step runs.
type Engine struct {
	store        *store.Store
	cache        *jsonpath.Cache
	logger       *slog.Logger
	maxLinkDepth int
	cacheSize    int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxLinkDepth sets how many links may be under resolution at once.
//
// Default: 32 (DefaultMaxLinkDepth)
func WithMaxLinkDepth(depth int) EngineOption {
	return func(e *Engine) {
		e.maxLinkDepth = depth
	}
}

// WithLogger sets the logger for query tracing. Default: slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCacheSize bounds the parsed-path cache.
func WithCacheSize(size int) EngineOption {
	return func(e *Engine) {
		e.cacheSize = size
	}
}

// New creates an Engine over s.
func New(s *store.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:        s,
		logger:       slog.Default(),
		maxLinkDepth: DefaultMaxLinkDepth,
		cacheSize:    jsonpath.DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxLinkDepth <= 0 {
		e.maxLinkDepth = DefaultMaxLinkDepth
	}
	e.cache = jsonpath.NewCache(e.cacheSize)
	return e
}

// Store returns the underlying row store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// MaxLinkDepth returns the configured link depth limit.
func (e *Engine) MaxLinkDepth() int {
	return e.maxLinkDepth
}

// NewLinkGuard returns a guard using the engine's depth limit.
func (e *Engine) NewLinkGuard() *LinkGuard {
	return NewLinkGuard(e.maxLinkDepth)
}

// Parse returns the cached parse of path after checking that the executor
// supports every construct in it.
func (e *Engine) Parse(path string) (queryir.Path, error) {
	p, err := e.cache.Parse(path)
	if err != nil {
		return queryir.Path{}, err
	}
	result := queryir.Validate(p)
	for _, w := range result.Warnings {
		e.logger.Debug("path warning", "path", path, "warning", w)
	}
	if err := result.Err(); err != nil {
		return queryir.Path{}, fmt.Errorf("path %q: %w", path, err)
	}
	return p, nil
}

// Rows evaluates path starting from row start and returns every match in
// result order.
func (e *Engine) Rows(ctx context.Context, path string, start int64) ([]ir.Row, error) {
	p, err := e.Parse(path)
	if err != nil {
		return nil, err
	}
	rows, err := e.Execute(ctx, p, start, e.NewLinkGuard())
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", path, err)
	}
	e.logger.Debug("query", "path", path, "start", start, "results", len(rows))
	return rows, nil
}

// Query evaluates path starting from row start and yields the matches
// lazily. When one is true the sequence stops after the first match.
//
// A failing query yields a single zero row with the error.
func (e *Engine) Query(ctx context.Context, path string, start int64, one bool) iter.Seq2[ir.Row, error] {
	return func(yield func(ir.Row, error) bool) {
		rows, err := e.Rows(ctx, path, start)
		if err != nil {
			yield(ir.Row{}, err)
			return
		}
		for _, row := range rows {
			if !yield(row, nil) || one {
				return
			}
		}
	}
}

// First returns the first match of path from start; found is false when
// nothing matches.
func (e *Engine) First(ctx context.Context, path string, start int64) (row ir.Row, found bool, err error) {
	for r, err := range e.Query(ctx, path, start, true) {
		if err != nil {
			return ir.Row{}, false, err
		}
		return r, true, nil
	}
	return ir.Row{}, false, nil
}

// WithLinkTarget resolves the link stored on row and calls fn with the row
// it points at. row stays on guard's chain until fn returns, so anything fn
// resolves underneath the target is checked against it.
//
// A link whose path matches nothing calls fn with found false. A target
// that is itself a link is followed in turn.
func (e *Engine) WithLinkTarget(ctx context.Context, row ir.Row, guard *LinkGuard, fn func(target ir.Row, found bool) error) error {
	if !row.HasLink() {
		return fn(row, true)
	}
	if err := guard.Enter(row); err != nil {
		return err
	}
	defer guard.Leave(row.ID)

	p, err := e.Parse(row.Link)
	if err != nil {
		return fmt.Errorf("link of row %d: %w", row.ID, err)
	}
	rows, err := e.Execute(ctx, p, ir.RootID, guard)
	if err != nil {
		return fmt.Errorf("link of row %d: %w", row.ID, err)
	}
	e.logger.Debug("resolve link", "row", row.ID, "link", row.Link, "matches", len(rows), "depth", guard.Depth())

	if len(rows) == 0 {
		return fn(ir.Row{}, false)
	}
	return e.WithLinkTarget(ctx, rows[0], guard, fn)
}

// ResolveLink returns the row that row's link points at, following chained
// links. Rows without a link resolve to themselves.
func (e *Engine) ResolveLink(ctx context.Context, row ir.Row, guard *LinkGuard) (target ir.Row, found bool, err error) {
	err = e.WithLinkTarget(ctx, row, guard, func(t ir.Row, ok bool) error {
		target, found = t, ok
		return nil
	})
	return target, found, err
}
