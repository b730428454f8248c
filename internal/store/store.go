package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (jsondata + settings, parent/type index only)
// 1 - Added (type, value) index for descendant-axis key lookups
const currentSchemaVersion = 1

// querier is the subset of *sql.DB and *sql.Tx the store needs.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Store is the row store behind one document.
//
// Every operation runs inside a transaction that is begun lazily on first
// use and ended by Commit or Rollback. The store is single-writer: callers
// must not share one Store between goroutines.
type Store struct {
	db     *sql.DB
	tx     *sql.Tx
	path   string
	logger *slog.Logger
}

// Option configures Open.
type Option func(*config)

type config struct {
	overwrite bool
	logger    *slog.Logger
}

// WithOverwrite drops any existing document tables before applying the schema.
func WithOverwrite(overwrite bool) Option {
	return func(c *config) {
		c.overwrite = overwrite
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Open creates or opens a SQLite database at the given path.
// An empty path opens a private in-memory database.
//
// The database is configured with:
//   - WAL mode for file databases
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Opening an existing database without WithOverwrite is idempotent.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := path
	if path == "" {
		dsn = MemoryPath()
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: the lazily begun transaction owns it, and an in-memory
	// database lives exactly as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if cfg.overwrite {
		if err := dropTables(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to overwrite: %w", err)
		}
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	cfg.logger.Debug("store opened", "path", dsn, "overwrite", cfg.overwrite)
	return &Store{db: db, path: dsn, logger: cfg.logger}, nil
}

// MemoryPath returns a fresh DSN for a private in-memory database.
func MemoryPath() string {
	return fmt.Sprintf("file:jsondb-%s?mode=memory&cache=shared", uuid.NewString())
}

// Path returns the DSN the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Commit flushes the open transaction, if any.
func (s *Store) Commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the open transaction, if any.
func (s *Store) Rollback() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Close commits pending writes and closes the database.
// Callers that want to discard pending writes must Rollback first.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	commitErr := s.Commit()
	closeErr := s.db.Close()
	s.db = nil
	return errors.Join(commitErr, closeErr)
}

// q returns the current transaction, beginning one if needed.
func (s *Store) q(ctx context.Context) (querier, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store is closed")
	}
	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

// Query runs a read query inside the current transaction.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	q, err := s.q(ctx)
	if err != nil {
		return nil, err
	}
	return q.QueryContext(ctx, query, args...)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// dropTables removes the document so the schema starts fresh.
func dropTables(db *sql.DB) error {
	stmts := []string{
		"DROP TABLE IF EXISTS jsondata",
		"DROP TABLE IF EXISTS settings",
		"PRAGMA user_version = 0",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the (type, value) index for databases created before it
// was part of schema.sql. CREATE INDEX IF NOT EXISTS is a no-op otherwise.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS jsondata_idx_type_value
		ON jsondata(type, value)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(ctx context.Context, name, expected string) error {
	q, err := s.q(ctx)
	if err != nil {
		return err
	}
	var value string
	if err := q.QueryRowContext(ctx, fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
