package querysql

import (
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
)

// Step queries select full rows (id, parent, type, value, link) in ascending
// id order. Frontiers are bound as one JSON array parameter and unpacked with
// json_each, so a step is a single statement regardless of frontier size.

func columns(alias string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.parent, %[1]s.type, %[1]s.value, %[1]s.link", alias)
}

const frontierSet = "(SELECT value FROM json_each(?))"

// Children selects the direct children of every parent.
func Children(parents []int64) (string, []any) {
	return `SELECT ` + columns("c") + ` FROM jsondata c
		WHERE c.parent IN ` + frontierSet + `
		ORDER BY c.id ASC`, []any{ir.EncodeIDs(parents)}
}

// ChildrenByKey selects the value rows of Key rows named name whose parent
// is in the frontier: the '.name' step.
func ChildrenByKey(frontier []int64, name string) (string, []any) {
	return `SELECT ` + columns("v") + ` FROM jsondata k
		JOIN jsondata v ON v.parent = k.id
		WHERE k.parent IN ` + frontierSet + ` AND k.type = ? AND k.value = ?
		ORDER BY v.id ASC`, []any{ir.EncodeIDs(frontier), int64(ir.TypeKey), name}
}

// ChildValues selects every direct child of the frontier, with Key rows
// replaced by their value row: the '.*' step.
func ChildValues(frontier []int64) (string, []any) {
	set := ir.EncodeIDs(frontier)
	return `SELECT ` + columns("c") + ` FROM jsondata c
		WHERE c.parent IN ` + frontierSet + ` AND c.type != ?
		UNION ALL
		SELECT ` + columns("v") + ` FROM jsondata k
		JOIN jsondata v ON v.parent = k.id
		WHERE k.parent IN ` + frontierSet + ` AND k.type = ?
		ORDER BY 1 ASC`, []any{set, int64(ir.TypeKey), set, int64(ir.TypeKey)}
}

// DescendantsByKey selects the value rows of Key rows named name whose
// Dict is a frontier row or lies below one: the '..name' step.
//
// Each candidate Key row walks its parent chain upward until it meets the
// frontier or passes the root; every candidate is tested in the same
// recursive query.
func DescendantsByKey(frontier []int64, name string) (string, []any) {
	set := ir.EncodeIDs(frontier)
	return `WITH RECURSIVE chain(kid, id) AS (
			SELECT k.id, k.parent FROM jsondata k WHERE k.type = ? AND k.value = ?
			UNION ALL
			SELECT c.kid, j.parent FROM chain c
			JOIN jsondata j ON j.id = c.id
			WHERE c.id NOT IN ` + frontierSet + `
		)
		SELECT ` + columns("v") + ` FROM jsondata v
		WHERE v.parent IN (SELECT kid FROM chain WHERE id IN ` + frontierSet + `)
		ORDER BY v.id ASC`, []any{int64(ir.TypeKey), name, set, set}
}

// RowsByID selects the given rows, ascending.
func RowsByID(ids []int64) (string, []any) {
	return `SELECT ` + columns("r") + ` FROM jsondata r
		WHERE r.id IN ` + frontierSet + `
		ORDER BY r.id ASC`, []any{ir.EncodeIDs(ids)}
}
