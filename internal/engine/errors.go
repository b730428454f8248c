package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/jsondb/internal/ir"
)

// LinkError represents a failure while following stored links.
//
// Link errors include:
//   - Cycle: a link resolves, directly or through other links, back to itself
//   - Depth: the chain of links under resolution exceeds the configured limit
//
// LinkError unwraps to ir.ErrLinkCycle for both codes.
type LinkError struct {
	// Code identifies the error category.
	Code LinkErrorCode

	// Message is a human-readable description.
	Message string

	// Link is the path stored on the offending row.
	Link string

	// RowID is the row whose link could not be followed.
	RowID int64

	// Chain lists the rows under resolution, outermost first.
	Chain []int64
}

// LinkErrorCode categorizes link errors.
type LinkErrorCode string

const (
	// ErrCodeLinkCycle indicates a row was re-entered while resolving it.
	ErrCodeLinkCycle LinkErrorCode = "LINK_CYCLE"

	// ErrCodeLinkDepth indicates the resolution chain grew past the limit.
	ErrCodeLinkDepth LinkErrorCode = "LINK_DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *LinkError) Error() string {
	if e.Link != "" {
		return fmt.Sprintf("%s: %s (row=%d, link=%s)", e.Code, e.Message, e.RowID, e.Link)
	}
	return fmt.Sprintf("%s: %s (row=%d)", e.Code, e.Message, e.RowID)
}

// Unwrap lets errors.Is match ir.ErrLinkCycle.
func (e *LinkError) Unwrap() error {
	return ir.ErrLinkCycle
}

// IsCycleError returns true if the error is a link cycle error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var le *LinkError
	if errors.As(err, &le) {
		return le.Code == ErrCodeLinkCycle
	}
	return false
}

// IsDepthError returns true if the error is a link depth error.
func IsDepthError(err error) bool {
	var le *LinkError
	if errors.As(err, &le) {
		return le.Code == ErrCodeLinkDepth
	}
	return false
}

// NewCycleError creates a LinkError for a re-entered row.
func NewCycleError(row ir.Row, chain []int64) *LinkError {
	return &LinkError{
		Code:    ErrCodeLinkCycle,
		Message: "link resolves back to a row already being resolved",
		Link:    row.Link,
		RowID:   row.ID,
		Chain:   chain,
	}
}

// NewDepthError creates a LinkError for a chain longer than limit.
func NewDepthError(row ir.Row, chain []int64, limit int) *LinkError {
	return &LinkError{
		Code:    ErrCodeLinkDepth,
		Message: fmt.Sprintf("link chain exceeded max depth (%d >= %d)", len(chain), limit),
		Link:    row.Link,
		RowID:   row.ID,
		Chain:   chain,
	}
}
