package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/jsondb"
	"github.com/roach88/jsondb/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Path     string // Query path, if any
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Path != "" {
		fmt.Fprintf(&buf, " %s", e.Path)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// assertQuery checks that the materialized results of a path equal the
// expected list.
func assertQuery(ctx context.Context, db *jsondb.DB, a Assertion) error {
	got, err := db.Query(a.Path).Values(ctx)
	if err != nil {
		return fmt.Errorf("query %s: %w", a.Path, err)
	}
	return compare(a, got)
}

// assertDocument checks the whole materialized document.
func assertDocument(ctx context.Context, db *jsondb.DB, a Assertion) error {
	got, err := db.Data(ctx)
	if err != nil {
		return fmt.Errorf("materialize document: %w", err)
	}
	return compare(a, got)
}

func compare(a Assertion, got any) error {
	want, err := ir.Normalize(a.Expect)
	if err != nil {
		return fmt.Errorf("assertion %s expect: %w", a.Type, err)
	}
	if ir.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Path:     a.Path,
		Expected: canonical(want),
		Actual:   canonical(got),
	}
}

// canonical renders v as canonical JSON for messages.
func canonical(v any) string {
	out, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

// EvaluateAssertions evaluates all assertions against the database.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(ctx context.Context, db *jsondb.DB, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertQuery:
			err = assertQuery(ctx, db, assertion)
		case AssertDocument:
			err = assertDocument(ctx, db, assertion)
		case AssertConsistent:
			err = db.Verify(ctx)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
