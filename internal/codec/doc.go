// Package codec converts documents to rows and back.
//
// A document is stored as an adjacency list. Each Dict entry becomes a Key
// row holding the entry name, with the entry's value as its only child;
// List elements hang directly off the List row. Container rows cache their
// direct-child count in the value column.
//
// New subtrees are laid out depth-first with ids reserved up front and
// written in one batch, so ascending id order is document order within
// anything a single feed creates. Dict keys are written in sorted order.
//
// A Dict entry named by the link key is not stored as an entry: its value,
// a path, becomes the Dict row's link and the Dict materializes as whatever
// that path resolves to.
package codec
