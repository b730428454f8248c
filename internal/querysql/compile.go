package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/queryir"
)

// fragment is a piece of SQL with the arguments for its placeholders, in
// placeholder order.
type fragment struct {
	sql  string
	args []any
}

func frag(sql string, args ...any) fragment {
	return fragment{sql: sql, args: args}
}

// join concatenates fragments with sep, keeping argument order.
func join(sep string, parts ...fragment) fragment {
	var out fragment
	sqls := make([]string, len(parts))
	for i, p := range parts {
		sqls[i] = p.sql
		out.args = append(out.args, p.args...)
	}
	out.sql = strings.Join(sqls, sep)
	return out
}

func (f fragment) wrap(prefix, suffix string) fragment {
	return fragment{sql: prefix + f.sql + suffix, args: f.args}
}

// CompilePredicate returns a query selecting the ids from candidates for
// which expr holds, ascending.
//
// A reference '@.a.b' resolves to the value under key "a" then "b" of the
// tested row. A missing key makes every comparison that mentions it false.
// In a boolean position (an operand of and/or/not, or the whole predicate) a
// reference tests presence instead. Dict and List values compare as null.
//
// Every value is bound as a parameter, never interpolated.
func CompilePredicate(expr queryir.Expr, candidates []int64) (string, []any, error) {
	if expr == nil {
		return "", nil, fmt.Errorf("compile predicate: %w: nil expression", ir.ErrUnsupportedOperation)
	}

	cond, err := condition(expr)
	if err != nil {
		return "", nil, fmt.Errorf("compile predicate: %w", err)
	}

	q := join("",
		frag(`SELECT t.id FROM jsondata t WHERE t.id IN (SELECT value FROM json_each(?)) AND (`, ir.EncodeIDs(candidates)),
		cond,
		frag(`) ORDER BY t.id ASC`),
	)
	return q.sql, q.args, nil
}

// condition compiles e where SQL expects a truth value.
func condition(e queryir.Expr) (fragment, error) {
	switch e := e.(type) {
	case queryir.Binary:
		switch e.Op {
		case queryir.OpAnd, queryir.OpOr:
			left, err := condition(e.Left)
			if err != nil {
				return fragment{}, err
			}
			right, err := condition(e.Right)
			if err != nil {
				return fragment{}, err
			}
			return join(" "+strings.ToUpper(e.Op)+" ", left, right).wrap("(", ")"), nil
		}
	case queryir.Unary:
		if e.Op == queryir.OpNot {
			inner, err := condition(e.Operand)
			if err != nil {
				return fragment{}, err
			}
			return inner.wrap("(NOT ", ")"), nil
		}
	case queryir.ChildRef:
		if e.IsSelf() {
			return frag(selfValue + " IS NOT NULL"), nil
		}
		return presence(e.Path), nil
	}
	return guarded(e)
}

// guarded compiles a comparison or value expression, prefixed by presence
// tests for every child reference it mentions.
func guarded(e queryir.Expr) (fragment, error) {
	v, err := value(e)
	if err != nil {
		return fragment{}, err
	}

	var guards []fragment
	seen := map[string]bool{}
	for _, path := range childRefs(e) {
		key := strings.Join(path, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		guards = append(guards, presence(path))
	}
	if len(guards) == 0 {
		return v.wrap("(", ")"), nil
	}
	return join(" AND ", append(guards, v.wrap("(", ")"))...).wrap("(", ")"), nil
}

// selfValue is the tested row's own value; containers and keys read as null.
var selfValue = fmt.Sprintf("(CASE WHEN t.type IN (%d, %d, %d) THEN NULL ELSE t.value END)",
	ir.TypeList, ir.TypeDict, ir.TypeKey)

var comparisonSQL = map[string]string{
	queryir.OpEq: "IS",
	queryir.OpNe: "IS NOT",
	queryir.OpLt: "<",
	queryir.OpLe: "<=",
	queryir.OpGt: ">",
	queryir.OpGe: ">=",
}

var arithmeticSQL = map[string]string{
	queryir.OpAdd: "+",
	queryir.OpSub: "-",
	queryir.OpMul: "*",
	queryir.OpDiv: "/",
}

// value compiles e where SQL expects a scalar.
func value(e queryir.Expr) (fragment, error) {
	switch e := e.(type) {
	case queryir.Literal:
		return literal(e.Value)

	case queryir.ChildRef:
		if e.IsSelf() {
			return frag(selfValue), nil
		}
		return refValue(e.Path), nil

	case queryir.Binary:
		if op, ok := comparisonSQL[e.Op]; ok {
			return binary(e, op)
		}
		if op, ok := arithmeticSQL[e.Op]; ok {
			return binary(e, op)
		}
		if e.Op == queryir.OpAnd || e.Op == queryir.OpOr {
			return condition(e)
		}
		return fragment{}, fmt.Errorf("%w: operator %q", ir.ErrUnsupportedOperation, e.Op)

	case queryir.Unary:
		switch e.Op {
		case queryir.OpNeg:
			inner, err := value(e.Operand)
			if err != nil {
				return fragment{}, err
			}
			return inner.wrap("(- ", ")"), nil
		case queryir.OpNot:
			return condition(e)
		}
		return fragment{}, fmt.Errorf("%w: unary operator %q", ir.ErrUnsupportedOperation, e.Op)

	case queryir.In:
		operand, err := value(e.Operand)
		if err != nil {
			return fragment{}, err
		}
		items := make([]fragment, len(e.List))
		for i, item := range e.List {
			if items[i], err = value(item); err != nil {
				return fragment{}, err
			}
		}
		op := " IN ("
		if e.Negated {
			op = " NOT IN ("
		}
		return join("", operand, frag(op), join(", ", items...), frag(")")).wrap("(", ")"), nil

	case queryir.Like:
		operand, err := value(e.Operand)
		if err != nil {
			return fragment{}, err
		}
		op := " LIKE ?"
		if e.Negated {
			op = " NOT LIKE ?"
		}
		return join("", operand, frag(op, e.Pattern)).wrap("(", ")"), nil

	case queryir.Call:
		arity, ok := queryir.Functions[e.Name]
		if !ok {
			return fragment{}, fmt.Errorf("%w: unknown function %q", ir.ErrUnsupportedOperation, e.Name)
		}
		if len(e.Args) != arity {
			return fragment{}, fmt.Errorf("%w: %s takes %d argument(s), got %d", ir.ErrUnsupportedOperation, e.Name, arity, len(e.Args))
		}
		args := make([]fragment, len(e.Args))
		for i, a := range e.Args {
			var err error
			if args[i], err = value(a); err != nil {
				return fragment{}, err
			}
		}
		return join(", ", args...).wrap(e.Name+"(", ")"), nil
	}

	return fragment{}, fmt.Errorf("%w: expression %T", ir.ErrUnsupportedOperation, e)
}

func binary(e queryir.Binary, op string) (fragment, error) {
	left, err := value(e.Left)
	if err != nil {
		return fragment{}, err
	}
	right, err := value(e.Right)
	if err != nil {
		return fragment{}, err
	}
	return join(" "+op+" ", left, right).wrap("(", ")"), nil
}

// literal binds a constant. Booleans bind as 0/1, matching storage.
func literal(v any) (fragment, error) {
	switch v := v.(type) {
	case nil:
		return frag("NULL"), nil
	case bool:
		if v {
			return frag("?", int64(1)), nil
		}
		return frag("?", int64(0)), nil
	case int64, float64, string:
		return frag("?", v), nil
	case int:
		return frag("?", int64(v)), nil
	}
	return fragment{}, fmt.Errorf("%w: literal %T", ir.ErrUnsupportedType, v)
}

// valueRowID selects the id of the row stored under path, starting from the
// tested row t. Each step goes through the Key row named by the element.
func valueRowID(path []string) fragment {
	parent := frag("t.id")
	for _, name := range path {
		parent = join("",
			frag("(SELECT v.id FROM jsondata k JOIN jsondata v ON v.parent = k.id WHERE k.parent = "),
			parent,
			frag(" AND k.type = ? AND k.value = ? ORDER BY v.id LIMIT 1)", int64(ir.TypeKey), name),
		)
	}
	return parent
}

func refValue(path []string) fragment {
	return join("",
		frag(fmt.Sprintf("(SELECT CASE WHEN r.type IN (%d, %d) THEN NULL ELSE r.value END FROM jsondata r WHERE r.id = ", ir.TypeList, ir.TypeDict)),
		valueRowID(path),
		frag(")"),
	)
}

func presence(path []string) fragment {
	return valueRowID(path).wrap("(", " IS NOT NULL)")
}

// childRefs lists the non-self reference paths inside a value expression,
// left to right. Nested and/or/not are conditions in their own right and
// carry their own guards.
func childRefs(e queryir.Expr) [][]string {
	var out [][]string
	var walk func(queryir.Expr)
	walk = func(e queryir.Expr) {
		switch e := e.(type) {
		case queryir.ChildRef:
			if !e.IsSelf() {
				out = append(out, e.Path)
			}
		case queryir.Binary:
			if e.Op == queryir.OpAnd || e.Op == queryir.OpOr {
				return
			}
			walk(e.Left)
			walk(e.Right)
		case queryir.Unary:
			if e.Op == queryir.OpNot {
				return
			}
			walk(e.Operand)
		case queryir.In:
			walk(e.Operand)
			for _, item := range e.List {
				walk(item)
			}
		case queryir.Like:
			walk(e.Operand)
		case queryir.Call:
			for _, a := range e.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return out
}
