// Package ir provides the shared document model for jsondb.
//
// This package contains type definitions and pure value helpers only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the row model and the value rules in one foundational layer.
//
// Documents are represented with plain Go values:
//   - int64 and float64 for numbers (Int and Float row types)
//   - string, bool and nil for the remaining scalars
//   - []any for lists, map[string]any for dicts
//
// Normalize converts any supported caller value into that shape. Rows carry
// the persisted Type tag; the numeric tag values are part of the on-disk
// format and must never be reordered.
package ir
