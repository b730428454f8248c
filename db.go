// Package jsondb is an embedded JSON document store backed by SQLite.
//
// A document is stored as one row per value, so paths can be queried and
// parts of the document changed without loading the whole of it. Queries use
// a JSONPath dialect:
//
//	db, err := jsondb.Create(ctx, doc, jsondb.WithPath("books.db"))
//	...
//	titles, err := db.Query("$.store.book[?(@.price > 10)].title").Values(ctx)
//
// Results are Nodes: typed handles onto rows that read and write through to
// the store. All changes belong to the session's open transaction until
// Commit. A DB must not be used from more than one goroutine.
package jsondb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/jsondb/internal/codec"
	"github.com/roach88/jsondb/internal/engine"
	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/loader"
	"github.com/roach88/jsondb/internal/store"
)

// DB is an open document session.
type DB struct {
	store   *store.Store
	engine  *engine.Engine
	codec   *codec.Codec
	logger  *slog.Logger
	linkKey string
}

// Option configures Create, Load, Open and FromFile.
type Option func(*config)

type config struct {
	path         string
	overwrite    bool
	linkKey      string
	logger       *slog.Logger
	maxLinkDepth int
}

// WithPath sets the database file. Default: a private in-memory database.
func WithPath(path string) Option {
	return func(c *config) {
		c.path = path
	}
}

// WithOverwrite controls whether Create truncates an existing database.
//
// Default: true
func WithOverwrite(overwrite bool) Option {
	return func(c *config) {
		c.overwrite = overwrite
	}
}

// WithLinkKey sets the dict key that declares a link. It is recorded in the
// database, and Load uses the recorded key unless this option is given.
//
// Default: "@__link__" (DefaultLinkKey)
func WithLinkKey(key string) Option {
	return func(c *config) {
		c.linkKey = key
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMaxLinkDepth bounds how many links may be followed while resolving
// one value.
//
// Default: 32
func WithMaxLinkDepth(depth int) Option {
	return func(c *config) {
		c.maxLinkDepth = depth
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		overwrite:    true,
		logger:       slog.Default(),
		maxLinkDepth: engine.DefaultMaxLinkDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Create stores data as a new document. The root row takes the type of
// data, so scalar documents are allowed. The document is committed before
// Create returns.
func Create(ctx context.Context, data any, opts ...Option) (*DB, error) {
	cfg := newConfig(opts)
	s, err := store.Open(cfg.path, store.WithOverwrite(cfg.overwrite), store.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	db, err := create(ctx, s, cfg, data)
	if err != nil {
		s.Close()
		return nil, err
	}
	return db, nil
}

func create(ctx context.Context, s *store.Store, cfg config, data any) (*DB, error) {
	exists, err := s.HasRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("create %s: document already exists: %w", s.Path(), ErrIllegalStructure)
	}

	key := cfg.linkKey
	if key == "" {
		key = ir.DefaultLinkKey
	}
	db := newDB(s, cfg, key)
	err = db.setup(ctx, func() error {
		if err := s.SetLinkKey(ctx, key); err != nil {
			return err
		}
		return db.codec.Init(ctx, data)
	})
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	cfg.logger.Info("document created", "path", s.Path(), "link_key", key)
	return db, nil
}

// Load opens an existing document. It is ErrNotFound if the database holds
// no document.
func Load(ctx context.Context, path string, opts ...Option) (*DB, error) {
	cfg := newConfig(opts)
	cfg.path = path
	s, err := store.Open(path, store.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	db, err := load(ctx, s, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	return db, nil
}

func load(ctx context.Context, s *store.Store, cfg config) (*DB, error) {
	rootType, err := s.RootType(ctx)
	if errors.Is(err, ir.ErrNotFound) {
		return nil, fmt.Errorf("load %s: no document: %w", s.Path(), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	stored, ok, err := s.LinkKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	key := cfg.linkKey
	switch {
	case key == "" && ok:
		key = stored
	case key == "":
		key = ir.DefaultLinkKey
	}

	db := newDB(s, cfg, key)
	if key != stored {
		err := db.setup(ctx, func() error {
			return s.SetLinkKey(ctx, key)
		})
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
	}
	cfg.logger.Debug("document loaded", "path", s.Path(), "root", rootType, "link_key", key)
	return db, nil
}

// Open loads the document at the configured path, or creates an empty Dict
// document if there is none yet. Open never truncates.
func Open(ctx context.Context, opts ...Option) (*DB, error) {
	cfg := newConfig(opts)
	s, err := store.Open(cfg.path, store.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	exists, err := s.HasRoot(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open: %w", err)
	}
	var db *DB
	if exists {
		db, err = load(ctx, s, cfg)
	} else {
		db, err = create(ctx, s, cfg, map[string]any{})
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return db, nil
}

// FromFile creates a document from a JSON, YAML or CUE file. The format is
// chosen by file extension.
func FromFile(ctx context.Context, file string, opts ...Option) (*DB, error) {
	data, err := loader.LoadFile(file)
	if err != nil {
		return nil, fmt.Errorf("from file: %w", err)
	}
	return Create(ctx, data, opts...)
}

// With opens a session as Open does and passes it to fn. The session is
// committed if fn succeeds and rolled back otherwise; it is always closed.
func With(ctx context.Context, fn func(*DB) error, opts ...Option) (err error) {
	db, err := Open(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := fn(db); err != nil {
		if rerr := db.Rollback(); rerr != nil {
			db.logger.Warn("rollback failed", "error", rerr)
		}
		return err
	}
	return db.Commit()
}

func newDB(s *store.Store, cfg config, linkKey string) *DB {
	e := engine.New(s,
		engine.WithMaxLinkDepth(cfg.maxLinkDepth),
		engine.WithLogger(cfg.logger),
	)
	return &DB{
		store:   s,
		engine:  e,
		codec:   codec.New(e, codec.WithLinkKey(linkKey), codec.WithLogger(cfg.logger)),
		logger:  cfg.logger,
		linkKey: linkKey,
	}
}

// setup runs fn and commits, rolling back if either fails.
func (db *DB) setup(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		err = db.store.Commit()
	}
	if err != nil {
		if rerr := db.store.Rollback(); rerr != nil {
			db.logger.Warn("rollback failed", "error", rerr)
		}
		return err
	}
	return nil
}

// Path returns the DSN of the underlying database.
func (db *DB) Path() string {
	return db.store.Path()
}

// LinkKey returns the dict key that declares a link.
func (db *DB) LinkKey() string {
	return db.linkKey
}

// Root returns the document root.
func (db *DB) Root(ctx context.Context) (Node, error) {
	return db.Node(ctx, ir.RootID)
}

// Node returns the node for a row id. It is ErrNotFound if no such row
// exists.
func (db *DB) Node(ctx context.Context, id int64) (Node, error) {
	row, err := db.store.GetRow(ctx, id)
	if err != nil {
		return nil, err
	}
	return db.wrap(row), nil
}

// Query evaluates path from the document root.
func (db *DB) Query(path string) *Result {
	return &Result{db: db, path: path, start: ir.RootID}
}

// QueryFrom evaluates path with start standing in for $.
func (db *DB) QueryFrom(path string, start int64) *Result {
	return &Result{db: db, path: path, start: start}
}

// Feed adds data beneath the row parent: a Dict merges data's entries, a
// List appends data, and a Dict entry's value is replaced. It returns the ids
// of the List and Dict rows it created, in creation order.
func (db *DB) Feed(ctx context.Context, data any, parent int64) ([]int64, error) {
	return db.codec.Feed(ctx, data, parent)
}

// UpdateLink points the row id at path, or clears its link when path is
// empty.
func (db *DB) UpdateLink(ctx context.Context, id int64, path string) error {
	if path != "" {
		if _, err := db.engine.Parse(path); err != nil {
			return fmt.Errorf("update link: %w", err)
		}
	}
	return db.store.UpdateLink(ctx, id, path)
}

// Data materializes the whole document.
func (db *DB) Data(ctx context.Context) (any, error) {
	return db.codec.Materialize(ctx, ir.RootID)
}

// Dumps returns the whole document as canonical JSON.
func (db *DB) Dumps(ctx context.Context) (string, error) {
	v, err := db.Data(ctx)
	if err != nil {
		return "", err
	}
	out, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("dumps: %w", err)
	}
	return string(out), nil
}

// Dump writes the whole document to file as indented JSON.
func (db *DB) Dump(ctx context.Context, file string) error {
	v, err := db.Data(ctx)
	if err != nil {
		return err
	}
	out, err := ir.MarshalIndent(v, "  ")
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	if err := os.WriteFile(file, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	return nil
}

// AllRows returns every stored row in id order.
func (db *DB) AllRows(ctx context.Context) ([]Row, error) {
	return db.store.AllRows(ctx)
}

// DumpRows writes the stored rows to w as a table.
func (db *DB) DumpRows(ctx context.Context, w io.Writer) error {
	return db.store.DumpRows(ctx, w)
}

// Commit makes all changes since the last Commit or Rollback durable.
func (db *DB) Commit() error {
	return db.store.Commit()
}

// Rollback discards all changes since the last Commit or Rollback.
func (db *DB) Rollback() error {
	return db.store.Rollback()
}

// Close commits pending changes and closes the database. Call Rollback
// first to discard them.
func (db *DB) Close() error {
	return db.store.Close()
}
