// Package jsonpath parses jsondb path expressions into queryir.Path.
//
// The language is a JSONPath dialect:
//
//	$.store.book[0].title            child steps and an index
//	$..author                        every "author" key at any depth
//	$.store.book[-2:]                Python-style slices
//	$.store.book[0, 2, -1]           unions keep selector order
//	$.store.book[?(@.price < 10)]    predicates over child values
//	$["key with spaces"]             quoted names
//
// Predicate expressions support and/or/not, comparisons, in/not in,
// like/not like, arithmetic and the functions listed in queryir.Functions.
// Keywords are case-insensitive.
package jsonpath
