package codec

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/jsondb/internal/engine"
	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/store"
)

// Codec writes documents into the row store and reads them back.
type Codec struct {
	store   *store.Store
	engine  *engine.Engine
	linkKey string
	logger  *slog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithLinkKey sets the dict key that declares a link. Default: "@__link__".
func WithLinkKey(key string) Option {
	return func(c *Codec) {
		c.linkKey = key
	}
}

// WithLogger sets the logger for feed tracing. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

// New creates a Codec over the engine's store. Links are resolved through
// the engine.
func New(e *engine.Engine, opts ...Option) *Codec {
	c := &Codec{
		store:   e.Store(),
		engine:  e,
		linkKey: ir.DefaultLinkKey,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.linkKey == "" {
		c.linkKey = ir.DefaultLinkKey
	}
	return c
}

// LinkKey returns the reserved link key.
func (c *Codec) LinkKey() string {
	return c.linkKey
}

// Init writes data as the document root. The store must not have a root yet.
func (c *Codec) Init(ctx context.Context, data any) error {
	v, err := ir.Normalize(data)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	t, err := ir.TypeOf(v)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := c.store.InitRoot(ctx, t, v); err != nil {
		return err
	}
	if t.IsContainer() {
		root := ir.Row{ID: ir.RootID, Parent: ir.RootParent, Type: t}
		if _, err := c.fillContainer(ctx, root, v); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}
	return nil
}

// Delete removes the row at id and everything beneath it. Deleting the
// value of a dict entry removes the whole entry.
func (c *Codec) Delete(ctx context.Context, id int64) error {
	row, err := c.store.GetRow(ctx, id)
	if err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	target := id
	if row.Parent != ir.RootParent {
		parent, err := c.store.GetRow(ctx, row.Parent)
		if err != nil {
			return fmt.Errorf("delete %d: %w", id, err)
		}
		if parent.Type == ir.TypeKey {
			target = parent.ID
		}
	}
	if err := c.store.Remove(ctx, target, true, true); err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	c.logger.Debug("delete", "row", id, "removed", target)
	return nil
}

// linkPath checks the value given for the link key. A nil value clears the
// link.
func (c *Codec) linkPath(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		if _, err := c.engine.Parse(v); err != nil {
			return "", fmt.Errorf("link %q: %w", v, err)
		}
		return v, nil
	}
	return "", fmt.Errorf("%w: %s must be a path string, got %T", ir.ErrUnsupportedType, c.linkKey, v)
}
