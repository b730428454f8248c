package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/jsondb/internal/ir"
)

const rowColumns = "id, parent, type, value, link"

// ChildFilter narrows ScanChildren to rows whose stored value equals Value.
type ChildFilter struct {
	Value any
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRow decodes one (id, parent, type, value, link) row.
func scanRow(sc scanner) (ir.Row, error) {
	var (
		row  ir.Row
		typ  int
		raw  any
		link sql.NullString
	)
	if err := sc.Scan(&row.ID, &row.Parent, &typ, &raw, &link); err != nil {
		return ir.Row{}, err
	}
	row.Type = ir.Type(typ)
	value, err := ir.DecodeValue(row.Type, raw)
	if err != nil {
		return ir.Row{}, fmt.Errorf("row %d: %w", row.ID, err)
	}
	row.Value = value
	row.Link = link.String
	return row, nil
}

// QueryRows runs a query selecting the five row columns in order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) QueryRows(ctx context.Context, query string, args ...any) ([]ir.Row, error) {
	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := []ir.Row{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// QueryIDs runs a query selecting a single id column.
func (s *Store) QueryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return out, nil
}

// GetRow returns the row with the given id.
// Returns an error wrapping ir.ErrNotFound if it does not exist.
func (s *Store) GetRow(ctx context.Context, id int64) (ir.Row, error) {
	q, err := s.q(ctx)
	if err != nil {
		return ir.Row{}, err
	}
	row, err := scanRow(q.QueryRowContext(ctx,
		`SELECT `+rowColumns+` FROM jsondata WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Row{}, fmt.Errorf("row %d: %w", id, ir.ErrNotFound)
	}
	if err != nil {
		return ir.Row{}, fmt.Errorf("get row %d: %w", id, err)
	}
	return row, nil
}

// HasRoot reports whether the document root row exists.
func (s *Store) HasRoot(ctx context.Context) (bool, error) {
	_, err := s.GetRow(ctx, ir.RootID)
	if errors.Is(err, ir.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// RootType returns the type tag of the document root.
func (s *Store) RootType(ctx context.Context) (ir.Type, error) {
	row, err := s.GetRow(ctx, ir.RootID)
	if err != nil {
		return 0, err
	}
	return row.Type, nil
}

// ScanChildren returns the direct children of parent in ascending id order.
func (s *Store) ScanChildren(ctx context.Context, parent int64, filter *ChildFilter) ([]ir.Row, error) {
	if filter != nil {
		return s.QueryRows(ctx, `
			SELECT `+rowColumns+` FROM jsondata
			WHERE parent = ? AND value = ?
			ORDER BY id ASC
		`, parent, filter.Value)
	}
	return s.QueryRows(ctx, `
		SELECT `+rowColumns+` FROM jsondata
		WHERE parent = ?
		ORDER BY id ASC
	`, parent)
}

// FindKey looks up the Key row named name under a Dict and the value row
// beneath it. Both ids are zero and found is false when the key is absent.
func (s *Store) FindKey(ctx context.Context, parent int64, name string) (keyID, valueID int64, found bool, err error) {
	q, err := s.q(ctx)
	if err != nil {
		return 0, 0, false, err
	}
	var value sql.NullInt64
	err = q.QueryRowContext(ctx, `
		SELECT k.id, (SELECT v.id FROM jsondata v WHERE v.parent = k.id ORDER BY v.id LIMIT 1)
		FROM jsondata k
		WHERE k.parent = ? AND k.type = ? AND k.value = ?
		ORDER BY k.id ASC
		LIMIT 1
	`, parent, int(ir.TypeKey), name).Scan(&keyID, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("find key %q: %w", name, err)
	}
	return keyID, value.Int64, true, nil
}

// ChildCount counts the direct children of id with a scan, ignoring the
// cached count column.
func (s *Store) ChildCount(ctx context.Context, id int64) (int64, error) {
	q, err := s.q(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM jsondata WHERE parent = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count children of %d: %w", id, err)
	}
	return n, nil
}

// NthChild returns the child of parent at offset; negative offsets count
// from the end. Out of range is an error wrapping ir.ErrIndex.
func (s *Store) NthChild(ctx context.Context, parent int64, offset int64) (ir.Row, error) {
	order := "ASC"
	if offset < 0 {
		order = "DESC"
		offset = -offset - 1
	}
	q, err := s.q(ctx)
	if err != nil {
		return ir.Row{}, err
	}
	row, err := scanRow(q.QueryRowContext(ctx, `
		SELECT `+rowColumns+` FROM jsondata
		WHERE parent = ?
		ORDER BY id `+order+`
		LIMIT 1 OFFSET ?
	`, parent, offset))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Row{}, fmt.Errorf("child %d of %d: %w", offset, parent, ir.ErrIndex)
	}
	if err != nil {
		return ir.Row{}, fmt.Errorf("nth child of %d: %w", parent, err)
	}
	return row, nil
}

// SliceChildren returns the children of parent selected by start:end:step.
func (s *Store) SliceChildren(ctx context.Context, parent int64, start, end, step *int) ([]ir.Row, error) {
	children, err := s.ScanChildren(ctx, parent, nil)
	if err != nil {
		return nil, err
	}
	idx, err := ir.SliceIndices(len(children), start, end, step)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Row, 0, len(idx))
	for _, i := range idx {
		out = append(out, children[i])
	}
	return out, nil
}

// AncestorTest reports whether id or any row on its parent chain is in
// candidates. The chain walk runs as one recursive query.
func (s *Store) AncestorTest(ctx context.Context, id int64, candidates []int64) (bool, error) {
	if len(candidates) == 0 {
		return false, nil
	}
	q, err := s.q(ctx)
	if err != nil {
		return false, err
	}
	var hit bool
	err = q.QueryRowContext(ctx, `
		WITH RECURSIVE chain(id, parent) AS (
			SELECT id, parent FROM jsondata WHERE id = ?
			UNION ALL
			SELECT j.id, j.parent FROM jsondata j JOIN chain c ON j.id = c.parent
		)
		SELECT EXISTS (
			SELECT 1 FROM chain WHERE id IN (SELECT value FROM json_each(?))
		)
	`, id, ir.EncodeIDs(candidates)).Scan(&hit)
	if err != nil {
		return false, fmt.Errorf("ancestor test %d: %w", id, err)
	}
	return hit, nil
}

// Subtree returns id and all of its descendants in ascending id order.
func (s *Store) Subtree(ctx context.Context, id int64) ([]ir.Row, error) {
	rows, err := s.QueryRows(ctx, `
		WITH RECURSIVE sub(id) AS (
			SELECT id FROM jsondata WHERE id = ?
			UNION ALL
			SELECT j.id FROM jsondata j JOIN sub ON j.parent = sub.id
		)
		SELECT `+rowColumns+` FROM jsondata
		WHERE id IN (SELECT id FROM sub)
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("subtree %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("row %d: %w", id, ir.ErrNotFound)
	}
	return rows, nil
}

// AllRows returns every row in ascending id order.
func (s *Store) AllRows(ctx context.Context) ([]ir.Row, error) {
	return s.QueryRows(ctx, `SELECT `+rowColumns+` FROM jsondata ORDER BY id ASC`)
}

// DumpRows writes a fixed-width table of every row to w.
func (s *Store) DumpRows(ctx context.Context, w io.Writer) error {
	rows, err := s.AllRows(ctx)
	if err != nil {
		return err
	}
	const format = "%12v %12v %-12v %v\n"
	if _, err := fmt.Fprintf(w, format, "id", "parent", "type", "value"); err != nil {
		return err
	}
	for _, row := range rows {
		value := row.Value
		if row.HasLink() {
			value = "LINK: " + row.Link
		}
		if _, err := fmt.Fprintf(w, format, row.ID, row.Parent, row.Type, value); err != nil {
			return err
		}
	}
	return nil
}
