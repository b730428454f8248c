// Package queryir defines the parsed form of jsondb path expressions.
//
// A Path is a list of Nodes. Each Node carries a Tag (axis + name, empty
// name for the wildcard) and the Filters applied to the rows the tag
// selects:
//
//	$.store.book[?(@.price > 10)].title
//	  Node{Tag{AxisChild, "store"}}
//	  Node{Tag{AxisChild, "book"}, [Predicate{Binary{">", ChildRef{price}, Literal{10}}}]}
//	  Node{Tag{AxisChild, "title"}}
//
// SEALED INTERFACES:
//
// Filter, Selector and Expr are sealed interfaces using the marker method
// pattern. Only types in this package implement them, so backends can use
// exhaustive type switches:
//
//	switch f := filter.(type) {
//	case Predicate:
//	    // compile f.Expr
//	case Union:
//	    // resolve f.Selectors
//	}
//
// The package is pure data: the parser lives in internal/jsonpath and the
// SQL backend in internal/querysql.
package queryir
