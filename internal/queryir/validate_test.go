package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/jsondb/internal/ir"
)

func intp(i int) *int { return &i }

func TestValidate_Clean(t *testing.T) {
	p := Path{Nodes: []Node{
		{Tag: Tag{Axis: AxisChild, Name: "book"}, Filters: []Filter{
			Predicate{Expr: Binary{Op: OpGt, Left: Call{Name: "length", Args: []Expr{ChildRef{Path: []string{"title"}}}}, Right: Literal{Value: int64(3)}}},
			Union{Selectors: []Selector{Index{Value: -1}, Slice{Start: intp(0), End: intp(2)}}},
		}},
	}}

	result := Validate(p)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.NoError(t, result.Err())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want string
	}{
		{
			name: "empty path",
			path: Path{},
			want: "no segments",
		},
		{
			name: "unknown function",
			path: Path{Nodes: []Node{{Tag: Tag{Name: "a"}, Filters: []Filter{
				Predicate{Expr: Call{Name: "sqrt", Args: []Expr{ChildRef{}}}},
			}}}},
			want: `unknown function "sqrt"`,
		},
		{
			name: "arity",
			path: Path{Nodes: []Node{{Tag: Tag{Name: "a"}, Filters: []Filter{
				Predicate{Expr: Call{Name: "lower"}},
			}}}},
			want: "lower takes 1 argument(s), got 0",
		},
		{
			name: "zero step",
			path: Path{Nodes: []Node{{Tag: Tag{Name: "a"}, Filters: []Filter{
				Union{Selectors: []Selector{Slice{Step: intp(0)}}},
			}}}},
			want: "slice step cannot be zero",
		},
		{
			name: "nil filter",
			path: Path{Nodes: []Node{{Tag: Tag{Name: "a"}, Filters: []Filter{nil}}}},
			want: "nil filter",
		},
		{
			name: "misplaced self step",
			path: Path{Nodes: []Node{{Tag: Tag{Name: "a"}}, {Tag: Tag{Axis: AxisSelf}}}},
			want: "self step",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.path).Err()
			assert.ErrorIs(t, err, ir.ErrUnsupportedOperation)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidate_DescendantWildcardWarns(t *testing.T) {
	result := Validate(Path{Nodes: []Node{{Tag: Tag{Axis: AxisDescendant}}}})
	assert.NoError(t, result.Err())
	assert.Len(t, result.Warnings, 1)
}

func TestPathString(t *testing.T) {
	p := Path{Nodes: []Node{
		{Tag: Tag{Axis: AxisChild, Name: "store"}},
		{Tag: Tag{Axis: AxisDescendant, Name: "a b"}},
		{Tag: Tag{Axis: AxisChild, Name: "book"}, Filters: []Filter{
			Predicate{Expr: Binary{
				Op:   OpAnd,
				Left: In{Operand: ChildRef{Path: []string{"cat"}}, List: []Expr{Literal{Value: "x"}, Literal{Value: nil}}, Negated: true},
				Right: Like{Operand: ChildRef{}, Pattern: `a"%`},
			}},
			Union{Selectors: []Selector{Index{Value: 1}, Slice{End: intp(-1)}, Slice{Step: intp(-1)}, Wildcard{}}},
		}},
		{Tag: Tag{Axis: AxisChild}},
	}}

	expected := `$.store..["a b"].book[?(((@.cat not in ("x", null)) and (@ like "a\"%")))][1, :-1, ::-1, *].*`
	assert.Equal(t, expected, p.String())
}

func TestPathStringSelfStep(t *testing.T) {
	p := Path{Nodes: []Node{
		{Tag: Tag{Axis: AxisSelf}, Filters: []Filter{Union{Selectors: []Selector{Index{Value: 0}}}}},
		{Tag: Tag{Axis: AxisChild, Name: "x"}},
	}}
	assert.Equal(t, "$[0].x", p.String())
}

func TestFormatExpr(t *testing.T) {
	tests := []struct {
		expr     Expr
		expected string
	}{
		{Literal{Value: 2.0}, "2.0"},
		{Literal{Value: true}, "true"},
		{Unary{Op: OpNot, Operand: ChildRef{Path: []string{"a", "b"}}}, "not @.a.b"},
		{Unary{Op: OpNeg, Operand: ChildRef{}}, "-@"},
		{Call{Name: "upper", Args: []Expr{Literal{Value: "x\ty"}}}, `upper("x\ty")`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatExpr(tt.expr))
	}
}
