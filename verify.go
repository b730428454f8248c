package jsondb

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
)

// Verify checks the stored tree for structural damage: container counts
// that disagree with the rows beneath them, dicts holding anything but key
// rows, keys without exactly one value, and rows whose parent is missing.
// All problems found are joined into one error wrapping ErrIllegalStructure.
func (db *DB) Verify(ctx context.Context) error {
	rows, err := db.store.AllRows(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int64]ir.Row, len(rows))
	kids := make(map[int64]int64, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
		kids[r.Parent]++
	}

	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ir.ErrIllegalStructure}, args...)...))
	}
	for _, r := range rows {
		if r.ID != ir.RootID {
			parent, ok := byID[r.Parent]
			switch {
			case !ok:
				bad("row %d: parent %d missing", r.ID, r.Parent)
			case parent.Type == ir.TypeDict && r.Type != ir.TypeKey:
				bad("row %d: %s directly under dict %d", r.ID, r.Type, r.Parent)
			case parent.Type.IsScalar():
				bad("row %d: under scalar %d", r.ID, r.Parent)
			}
		}
		switch {
		case r.Type.IsContainer() && r.Count() != kids[r.ID]:
			bad("row %d: cached count %d, %d children", r.ID, r.Count(), kids[r.ID])
		case r.Type == ir.TypeKey && kids[r.ID] != 1:
			bad("key row %d: %d values", r.ID, kids[r.ID])
		}
	}
	return errors.Join(errs...)
}
