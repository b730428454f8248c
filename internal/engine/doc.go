// Package engine evaluates parsed paths against the row store.
//
// Evaluation works on a frontier of rows that starts at the query's start
// row and is replaced segment by segment. Each step runs as one SQL
// statement over the whole frontier, so a query costs a small number of
// statements per segment no matter how many rows it touches.
//
// ORDERING:
//
// Rows produced by a step come back in ascending id order. Since the codec
// writes documents depth-first, that is document order for children of one
// container and for descendant matches. Union filters are the exception:
// they keep selector order so that `[::-1]` walks a list backwards.
//
// LINKS:
//
// A row may carry a link, a path stored in place of its contents. Links are
// followed wherever a step needs to look beneath a row: at the start row,
// and for every segment except a filterless last one. Following goes
// through a LinkGuard, which fails with LINK_CYCLE when a link resolves back
// to a row that is still being resolved and LINK_DEPTH_EXCEEDED when the
// chain of nested links reaches the configured limit.
//
// CONCURRENCY:
//
// An Engine shares its store's single session and is not safe for
// concurrent use.
package engine
