package queryir

// Axis selects direct children or arbitrary-depth descendants.
type Axis int

const (
	// AxisChild is the '.' axis.
	AxisChild Axis = iota
	// AxisDescendant is the '..' axis.
	AxisDescendant
	// AxisSelf keeps the frontier in place. Only a leading '$[...]' uses it.
	AxisSelf
)

func (a Axis) String() string {
	switch a {
	case AxisDescendant:
		return ".."
	case AxisSelf:
		return ""
	}
	return "."
}

// Path is a parsed path expression: '$' followed by one or more nodes.
type Path struct {
	Nodes []Node
}

// Node is one path segment: a tag plus the filters applied to its matches.
type Node struct {
	Tag     Tag
	Filters []Filter
}

// Tag names the rows a segment selects. An empty Name is the wildcard.
type Tag struct {
	Axis Axis
	Name string
}

// IsWildcard reports whether the tag selects every child.
func (t Tag) IsWildcard() bool {
	return t.Name == ""
}

// Filter narrows a segment's candidate set.
//
// This is a sealed interface - only types in this package implement it.
// Filter types:
//   - Predicate: keep candidates for which Expr holds
//   - Union: keep candidates picked by index/slice/wildcard selectors
type Filter interface {
	filterNode()
}

// Predicate is a '[?(expr)]' filter.
type Predicate struct {
	Expr Expr
}

func (Predicate) filterNode() {}

// Union is a '[sel, sel, ...]' filter. Selectors resolve against the
// ordered candidate list; the result keeps selector order without duplicates.
type Union struct {
	Selectors []Selector
}

func (Union) filterNode() {}

// Selector is one member of a Union.
//
// This is a sealed interface - only types in this package implement it.
type Selector interface {
	selectorNode()
}

// Index picks one position; negative values count from the end.
type Index struct {
	Value int
}

func (Index) selectorNode() {}

// Slice picks start:end:step. Nil fields are omitted bounds.
type Slice struct {
	Start *int
	End   *int
	Step  *int
}

func (Slice) selectorNode() {}

// Wildcard picks every position.
type Wildcard struct{}

func (Wildcard) selectorNode() {}

// Expr is a predicate expression.
//
// This is a sealed interface - only types in this package implement it.
// Expr types:
//   - Binary: and, or, comparison and arithmetic operators
//   - Unary: not, numeric negation
//   - In: membership in a literal list
//   - Like: SQL LIKE pattern match
//   - Literal: number, string, boolean or null
//   - ChildRef: '@' or '@.a.b', a value relative to the tested row
//   - Call: a whitelisted scalar function
type Expr interface {
	exprNode()
}

// Operators used by Binary and Unary.
const (
	OpOr  = "or"
	OpAnd = "and"
	OpNot = "not"
	OpEq  = "="
	OpNe  = "!="
	OpLt  = "<"
	OpLe  = "<="
	OpGt  = ">"
	OpGe  = ">="
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpNeg = "neg"
)

// Binary applies Op to Left and Right.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (Binary) exprNode() {}

// Unary applies Op (OpNot or OpNeg) to Operand.
type Unary struct {
	Op      string
	Operand Expr
}

func (Unary) exprNode() {}

// In tests Operand against List.
type In struct {
	Operand Expr
	List    []Expr
	Negated bool
}

func (In) exprNode() {}

// Like matches Operand against a LIKE pattern ('%' and '_' wildcards).
type Like struct {
	Operand Expr
	Pattern string
	Negated bool
}

func (Like) exprNode() {}

// Literal is a constant: int64, float64, string, bool or nil.
type Literal struct {
	Value any
}

func (Literal) exprNode() {}

// ChildRef names a value relative to the tested row. An empty Path is the
// row itself ('@'); otherwise each element descends through a dict key.
type ChildRef struct {
	Path []string
}

func (ChildRef) exprNode() {}

// IsSelf reports whether the reference is the bare '@'.
func (c ChildRef) IsSelf() bool {
	return len(c.Path) == 0
}

// Call invokes a scalar function by lower-case name.
type Call struct {
	Name string
	Args []Expr
}

func (Call) exprNode() {}

// Functions lists the callable names and their arity.
var Functions = map[string]int{
	"length": 1,
	"lower":  1,
	"upper":  1,
	"abs":    1,
	"trim":   1,
}
