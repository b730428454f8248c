package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/jsondb/internal/ir"
)

// ValidationResult collects problems found in a parsed path.
//
// Errors make the path unexecutable; Warnings flag paths that execute but
// can never match anything.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Err returns nil when there are no errors, otherwise one error wrapping
// ir.ErrUnsupportedOperation that lists them all.
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ir.ErrUnsupportedOperation, strings.Join(r.Errors, "; "))
}

// Validate checks a path for operations the executor cannot perform:
// unknown functions, wrong function arity, zero slice steps and nil nodes.
//
// Validate is a pure function with no side effects.
func Validate(p Path) ValidationResult {
	v := &validator{
		errors:   []string{},
		warnings: []string{},
	}
	if len(p.Nodes) == 0 {
		v.addError("path has no segments")
	}
	for i, n := range p.Nodes {
		v.validateNode(i, n)
	}
	return ValidationResult{Errors: v.errors, Warnings: v.warnings}
}

// validator accumulates findings during traversal.
type validator struct {
	errors   []string
	warnings []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateNode(i int, n Node) {
	if n.Tag.Axis == AxisDescendant && n.Tag.IsWildcard() {
		v.addWarning("segment %d: descendant wildcard '..*' never matches", i)
	}
	if n.Tag.Axis == AxisSelf && (i != 0 || len(n.Filters) == 0) {
		v.addError("segment %d: self step must lead the path and carry filters", i)
	}
	for _, f := range n.Filters {
		switch f := f.(type) {
		case Predicate:
			v.validateExpr(i, f.Expr)
		case Union:
			if len(f.Selectors) == 0 {
				v.addError("segment %d: empty union", i)
			}
			for _, sel := range f.Selectors {
				v.validateSelector(i, sel)
			}
		case nil:
			v.addError("segment %d: nil filter", i)
		default:
			v.addError("segment %d: unknown filter %T", i, f)
		}
	}
}

func (v *validator) validateSelector(i int, sel Selector) {
	switch s := sel.(type) {
	case Index, Wildcard:
	case Slice:
		if s.Step != nil && *s.Step == 0 {
			v.addError("segment %d: slice step cannot be zero", i)
		}
	default:
		v.addError("segment %d: unknown selector %T", i, sel)
	}
}

func (v *validator) validateExpr(i int, e Expr) {
	switch e := e.(type) {
	case Binary:
		v.validateExpr(i, e.Left)
		v.validateExpr(i, e.Right)
	case Unary:
		v.validateExpr(i, e.Operand)
	case In:
		v.validateExpr(i, e.Operand)
		for _, item := range e.List {
			v.validateExpr(i, item)
		}
	case Like:
		v.validateExpr(i, e.Operand)
	case Literal, ChildRef:
	case Call:
		arity, ok := Functions[e.Name]
		if !ok {
			v.addError("segment %d: unknown function %q", i, e.Name)
			return
		}
		if len(e.Args) != arity {
			v.addError("segment %d: %s takes %d argument(s), got %d", i, e.Name, arity, len(e.Args))
		}
		for _, a := range e.Args {
			v.validateExpr(i, a)
		}
	case nil:
		v.addError("segment %d: nil expression", i)
	default:
		v.addError("segment %d: unknown expression %T", i, e)
	}
}
