package ir

import "errors"

// Sentinel errors shared by every layer. Callers match with errors.Is.
var (
	// ErrSyntax reports a malformed path expression.
	ErrSyntax = errors.New("syntax error")

	// ErrUnsupportedType reports a fed value with no mapped type tag.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIllegalStructure reports a feed that targets a non-container parent.
	ErrIllegalStructure = errors.New("illegal structure")

	// ErrUnsupportedOperation reports an invalid key type, filter kind or
	// operator for the value at hand.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrIndex reports a position access out of bounds.
	ErrIndex = errors.New("index out of range")

	// ErrNotFound reports a missing row.
	ErrNotFound = errors.New("not found")

	// ErrLinkCycle reports a link chain that revisits a row or runs too deep.
	ErrLinkCycle = errors.New("link cycle")

	// ErrDivisionByZero reports integer or float division by zero.
	ErrDivisionByZero = errors.New("division by zero")
)
