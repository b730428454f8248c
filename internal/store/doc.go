// Package store provides the SQLite-backed row store for jsondb documents.
//
// A document is one adjacency-list table:
//   - jsondata(id, parent, type, value, link): one row per tree node
//   - settings(key, value): document metadata such as the link key
//
// # Critical Patterns
//
// Deterministic ordering
//   - Every multi-row read ends in ORDER BY id ASC
//   - Sibling order is insertion order because ids only grow
//
// Cached counts
//   - List and Dict rows store their direct-child count in value
//   - Remove keeps the counts consistent; inserts are counted by the codec
//
// Id sets
//   - Candidate sets are bound as one JSON array parameter and expanded with
//     json_each, so statements never splice ids into SQL text
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All statements run in a lazily begun transaction; Commit, Rollback and
// Close end it.
package store
