package jsonpath

import (
	"errors"
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
)

// SyntaxError reports a malformed path expression.
//
// SyntaxError unwraps to ir.ErrSyntax, so callers can match either the
// sentinel or the structured type:
//
//	var se *SyntaxError
//	if errors.As(err, &se) { ... se.Pos ... }
type SyntaxError struct {
	Path string // the full path being parsed
	Pos  int    // byte offset of the offending token
	Msg  string // what was wrong
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d in %q: %s", e.Pos, e.Path, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ir.ErrSyntax
}

// IsSyntaxError reports whether err is (or wraps) a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

func syntaxError(path string, pos int, format string, args ...any) error {
	return &SyntaxError{Path: path, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
