// Package harness runs conformance scenarios against a document store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	document: documents/store.json   # or inline: data: {...}
//	link_key: "@__link__"            # optional
//	steps:
//	  - op: query
//	    path: "$.store.book[*].title"
//	    expect:
//	      values: ["A", "B"]
//	  - op: feed
//	    path: "$.store.book"
//	    value: {title: "C"}
//	  - op: replace
//	    path: "$.store.book[0].price"
//	    value: 12.5
//	  - op: delete
//	    path: "$.store.bicycle"
//	  - op: link
//	    path: "$.alias"
//	    link: "$.store"
//	  - op: query
//	    path: "$.["
//	    expect:
//	      error: syntax
//	assertions:
//	  - type: query
//	    path: "$..title"
//	    expect: ["A", "B", "C"]
//	  - type: document
//	    expect: {...}
//	  - type: consistent
//
// Every step except feed needs a path; feed defaults to the root. A
// mutating step's path must match exactly one row. Document paths are
// relative to the scenario file.
//
// # Assertion Types
//
//   - query: the materialized results of path equal expect
//   - document: the whole materialized document equals expect
//   - consistent: the stored tree passes DB.Verify
//
// # Deterministic Testing
//
// Each scenario runs in a fresh in-memory database, and the trace records
// only values and error kinds, never row ids, so traces are stable for
// golden file comparison.
package harness
