package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
)

// Pending is one buffered row for BatchInsert. A zero ID lets SQLite
// assign the next id; explicit ids come from a range reserved by NextID.
// Container rows carry their final child count as Value.
type Pending struct {
	ID     int64
	Parent int64
	Type   ir.Type
	Value  any
	Link   string
}

// InitRoot inserts the root row (id -1, parent -2).
// value is the normalized root scalar; containers start with a zero count.
func (s *Store) InitRoot(ctx context.Context, t ir.Type, value any) error {
	if t.IsContainer() {
		value = int64(0)
	}
	raw, err := ir.EncodeValue(t, value)
	if err != nil {
		return fmt.Errorf("init root: %w", err)
	}
	q, err := s.q(ctx)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO jsondata (id, parent, type, value, link)
		VALUES (?, ?, ?, ?, NULL)
	`, ir.RootID, ir.RootParent, int(t), raw)
	if err != nil {
		return fmt.Errorf("init root: %w", err)
	}
	return nil
}

// Insert adds one row and returns its id. Container rows start with a zero
// count regardless of value.
func (s *Store) Insert(ctx context.Context, parent int64, t ir.Type, value any) (int64, error) {
	if t.IsContainer() {
		value = int64(0)
	}
	raw, err := ir.EncodeValue(t, value)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	q, err := s.q(ctx)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO jsondata (parent, type, value, link) VALUES (?, ?, ?, NULL)
	`, parent, int(t), raw)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// BatchInsert adds rows in order using one prepared statement.
func (s *Store) BatchInsert(ctx context.Context, rows []Pending) error {
	if len(rows) == 0 {
		return nil
	}
	q, err := s.q(ctx)
	if err != nil {
		return err
	}
	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO jsondata (id, parent, type, value, link) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range rows {
		raw, err := ir.EncodeValue(p.Type, p.Value)
		if err != nil {
			return fmt.Errorf("batch insert row %d: %w", i, err)
		}
		var id, link any
		if p.ID != 0 {
			id = p.ID
		}
		if p.Link != "" {
			link = p.Link
		}
		if _, err := stmt.ExecContext(ctx, id, p.Parent, int(p.Type), raw, link); err != nil {
			return fmt.Errorf("batch insert row %d: %w", i, err)
		}
	}
	s.logger.Debug("batch insert", "rows", len(rows))
	return nil
}

// NextID returns the id the next inserted row receives. Ids are never
// reused, so the answer accounts for rows that were deleted.
func (s *Store) NextID(ctx context.Context) (int64, error) {
	q, err := s.q(ctx)
	if err != nil {
		return 0, err
	}
	var last int64
	err = q.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT seq FROM sqlite_sequence WHERE name = 'jsondata'), 0),
			COALESCE((SELECT MAX(id) FROM jsondata), 0)
		)
	`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return last + 1, nil
}

// SetScalarValue overwrites the value of a row without changing its type.
func (s *Store) SetScalarValue(ctx context.Context, id int64, value any) error {
	row, err := s.GetRow(ctx, id)
	if err != nil {
		return err
	}
	raw, err := ir.EncodeValue(row.Type, value)
	if err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return s.exec(ctx, "set value", `UPDATE jsondata SET value = ? WHERE id = ?`, raw, id)
}

// SetRow overwrites type and value of a row. Setting a container type
// resets the cached count to zero; the caller owns the children.
func (s *Store) SetRow(ctx context.Context, id int64, t ir.Type, value any) error {
	if t.IsContainer() {
		value = int64(0)
	}
	raw, err := ir.EncodeValue(t, value)
	if err != nil {
		return fmt.Errorf("set row: %w", err)
	}
	return s.exec(ctx, "set row", `UPDATE jsondata SET type = ?, value = ? WHERE id = ?`, int(t), raw, id)
}

// UpdateLink stores a link path on a row. An empty link clears it.
func (s *Store) UpdateLink(ctx context.Context, id int64, link string) error {
	var arg any
	if link != "" {
		arg = link
	}
	return s.exec(ctx, "update link", `UPDATE jsondata SET link = ? WHERE id = ?`, arg, id)
}

// IncrementCount adds delta to a container row's cached child count.
// Rows of other types are left untouched.
func (s *Store) IncrementCount(ctx context.Context, id int64, delta int64) error {
	return s.exec(ctx, "increment count", `
		UPDATE jsondata SET value = COALESCE(value, 0) + ?
		WHERE id = ? AND type IN (?, ?)
	`, delta, id, int(ir.TypeList), int(ir.TypeDict))
}

// Remove deletes the children of id, transitively when recursive, and the
// row itself when includeSelf. Cached counts stay consistent: a cleared
// container's count drops to zero and a removed row's container parent is
// decremented.
func (s *Store) Remove(ctx context.Context, id int64, recursive, includeSelf bool) error {
	row, err := s.GetRow(ctx, id)
	if err != nil {
		return err
	}

	if recursive {
		err = s.exec(ctx, "remove", `
			WITH RECURSIVE sub(id) AS (
				SELECT id FROM jsondata WHERE parent = ?
				UNION ALL
				SELECT j.id FROM jsondata j JOIN sub ON j.parent = sub.id
			)
			DELETE FROM jsondata WHERE id IN (SELECT id FROM sub)
		`, id)
	} else {
		err = s.exec(ctx, "remove", `DELETE FROM jsondata WHERE parent = ?`, id)
	}
	if err != nil {
		return err
	}

	if !includeSelf {
		if row.Type.IsContainer() {
			return s.exec(ctx, "remove", `UPDATE jsondata SET value = 0 WHERE id = ?`, id)
		}
		return nil
	}

	if err := s.exec(ctx, "remove", `DELETE FROM jsondata WHERE id = ?`, id); err != nil {
		return err
	}
	return s.IncrementCount(ctx, row.Parent, -1)
}

// SetLinkKey records the reserved link-key in the settings table.
func (s *Store) SetLinkKey(ctx context.Context, key string) error {
	return s.exec(ctx, "set link key", `
		INSERT OR REPLACE INTO settings (key, value) VALUES ('link_key', ?)
	`, key)
}

// LinkKey returns the stored link-key, or ok=false if none was recorded.
func (s *Store) LinkKey(ctx context.Context) (string, bool, error) {
	q, err := s.q(ctx)
	if err != nil {
		return "", false, err
	}
	var key sql.NullString
	err = q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'link_key'`).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get link key: %w", err)
	}
	return key.String, key.Valid && key.String != "", nil
}

func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	q, err := s.q(ctx)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
