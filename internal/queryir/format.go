package queryir

import (
	"strconv"
	"strings"
)

// String renders the path back into path-expression syntax. Parsing the
// result yields an equal Path.
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, n := range p.Nodes {
		writeNode(&b, n)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	switch {
	case n.Tag.Axis == AxisSelf:
	case isPlainName(n.Tag.Name):
		b.WriteString(n.Tag.Axis.String())
		b.WriteString(n.Tag.Name)
	case n.Tag.IsWildcard():
		b.WriteString(n.Tag.Axis.String())
		b.WriteByte('*')
	default:
		if n.Tag.Axis == AxisDescendant {
			b.WriteString("..")
		}
		b.WriteByte('[')
		b.WriteString(Quote(n.Tag.Name))
		b.WriteByte(']')
	}
	for _, f := range n.Filters {
		b.WriteByte('[')
		switch f := f.(type) {
		case Predicate:
			b.WriteString("?(")
			b.WriteString(FormatExpr(f.Expr))
			b.WriteByte(')')
		case Union:
			for i, sel := range f.Selectors {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(formatSelector(sel))
			}
		}
		b.WriteByte(']')
	}
}

func formatSelector(sel Selector) string {
	switch s := sel.(type) {
	case Index:
		return strconv.Itoa(s.Value)
	case Slice:
		out := optInt(s.Start) + ":" + optInt(s.End)
		if s.Step != nil {
			out += ":" + optInt(s.Step)
		}
		return out
	case Wildcard:
		return "*"
	}
	return "?"
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// FormatExpr renders a predicate expression. Binary and membership
// expressions are fully parenthesised.
func FormatExpr(e Expr) string {
	switch e := e.(type) {
	case Binary:
		return "(" + FormatExpr(e.Left) + " " + e.Op + " " + FormatExpr(e.Right) + ")"
	case Unary:
		if e.Op == OpNeg {
			return "-" + FormatExpr(e.Operand)
		}
		return "not " + FormatExpr(e.Operand)
	case In:
		items := make([]string, len(e.List))
		for i, item := range e.List {
			items[i] = FormatExpr(item)
		}
		op := " in "
		if e.Negated {
			op = " not in "
		}
		return "(" + FormatExpr(e.Operand) + op + "(" + strings.Join(items, ", ") + "))"
	case Like:
		op := " like "
		if e.Negated {
			op = " not like "
		}
		return "(" + FormatExpr(e.Operand) + op + Quote(e.Pattern) + ")"
	case Literal:
		return formatLiteral(e.Value)
	case ChildRef:
		var b strings.Builder
		b.WriteByte('@')
		for _, name := range e.Path {
			if isPlainName(name) {
				b.WriteByte('.')
				b.WriteString(name)
			} else {
				b.WriteByte('[')
				b.WriteString(Quote(name))
				b.WriteByte(']')
			}
		}
		return b.String()
	case Call:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = FormatExpr(a)
		}
		return e.Name + "(" + strings.Join(args, ", ") + ")"
	}
	return "?"
}

func formatLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case string:
		return Quote(v)
	}
	return "?"
}

// Quote renders s as a double-quoted path literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isPlainName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsNameRune(r) {
			return false
		}
	}
	return true
}

// IsNameRune reports whether r may appear in an unquoted name.
func IsNameRune(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
