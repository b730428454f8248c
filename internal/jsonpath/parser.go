package jsonpath

import (
	"strconv"
	"strings"

	"github.com/roach88/jsondb/internal/queryir"
)

// Parse turns a path expression into its queryir form.
//
// Grammar (whitespace is insignificant between tokens):
//
//	path      := '$' node+
//	node      := ('.' | '..') (name | '*' | '[' string ']') filter*
//	           | '[' string ']' filter*
//	           | filter+                       first node only: self step
//	filter    := '[' '?' '(' expr ')' ']' | '[' sel (',' sel)* ']'
//	sel       := int | [int] ':' [int] [':' [int]] | '*'
//	expr      := and ('or' and)*
//	and       := not ('and' not)*
//	not       := 'not' not | in
//	in        := cmp [['not'] 'in' '(' expr (',' expr)* ')']
//	cmp       := like [cmpop cmp]
//	like      := add [['not'] 'like' string]
//	add       := mul (('+' | '-') mul)*
//	mul       := unary (('*' | '/') unary)*
//	unary     := '-' unary | atom
//	atom      := number | string | true | false | null
//	           | '@' ('.' name | '[' string ']')*
//	           | name '(' [expr (',' expr)*] ')'
//	           | '(' expr ')'
//
// Keywords are case-insensitive. Errors are *SyntaxError.
func Parse(input string) (queryir.Path, error) {
	tokens, err := lex(input)
	if err != nil {
		return queryir.Path{}, err
	}

	p := &parserState{input: input, tokens: tokens}
	path, err := p.parsePath()
	if err != nil {
		return queryir.Path{}, err
	}
	if p.current().typ != tokenEOF {
		return queryir.Path{}, p.unexpected()
	}
	return path, nil
}

type parserState struct {
	input  string
	tokens []token
	pos    int
}

func (p *parserState) current() token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *parserState) peek(offset int) token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parserState) advance() token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parserState) expect(typ tokenType) (token, error) {
	tok := p.current()
	if tok.typ != typ {
		return tok, p.errorf(tok.pos, "expected %s, found %s", typ, tok.describe())
	}
	p.advance()
	return tok, nil
}

func (p *parserState) errorf(pos int, format string, args ...any) error {
	return syntaxError(p.input, pos, format, args...)
}

func (p *parserState) unexpected() error {
	tok := p.current()
	return p.errorf(tok.pos, "unexpected %s", tok.describe())
}

// keyword reports whether the current token is the given case-insensitive
// keyword.
func (p *parserState) keyword(word string) bool {
	return isKeyword(p.current(), word)
}

func isKeyword(tok token, word string) bool {
	return tok.typ == tokenName && strings.EqualFold(tok.literal, word)
}

func (p *parserState) parsePath() (queryir.Path, error) {
	if _, err := p.expect(tokenDollar); err != nil {
		return queryir.Path{}, err
	}

	var nodes []queryir.Node

	// "$[0]", "$[?(...)]": filters applied to the root itself.
	if p.current().typ == tokenLBracket && p.peek(1).typ != tokenString {
		filters, err := p.parseFilters()
		if err != nil {
			return queryir.Path{}, err
		}
		nodes = append(nodes, queryir.Node{Tag: queryir.Tag{Axis: queryir.AxisSelf}, Filters: filters})
	}

	for p.startsNode() {
		node, err := p.parseNode()
		if err != nil {
			return queryir.Path{}, err
		}
		nodes = append(nodes, node)
	}

	if len(nodes) == 0 {
		tok := p.current()
		return queryir.Path{}, p.errorf(tok.pos, "path needs at least one segment after '$'")
	}
	return queryir.Path{Nodes: nodes}, nil
}

func (p *parserState) startsNode() bool {
	switch p.current().typ {
	case tokenDot, tokenDotDot:
		return true
	case tokenLBracket:
		return p.peek(1).typ == tokenString
	}
	return false
}

func (p *parserState) parseNode() (queryir.Node, error) {
	tag := queryir.Tag{Axis: queryir.AxisChild}

	switch p.current().typ {
	case tokenDot, tokenDotDot:
		if p.advance().typ == tokenDotDot {
			tag.Axis = queryir.AxisDescendant
		}
		tok := p.current()
		switch tok.typ {
		case tokenStar:
			p.advance()
		case tokenName, tokenNumber:
			p.advance()
			tag.Name = tok.literal
		case tokenLBracket:
			name, err := p.parseBracketName()
			if err != nil {
				return queryir.Node{}, err
			}
			tag.Name = name
		default:
			return queryir.Node{}, p.errorf(tok.pos, "expected name or '*' after %s, found %s", tag.Axis, tok.describe())
		}
	default:
		name, err := p.parseBracketName()
		if err != nil {
			return queryir.Node{}, err
		}
		tag.Name = name
	}

	filters, err := p.parseFilters()
	if err != nil {
		return queryir.Node{}, err
	}
	return queryir.Node{Tag: tag, Filters: filters}, nil
}

func (p *parserState) parseBracketName() (string, error) {
	if _, err := p.expect(tokenLBracket); err != nil {
		return "", err
	}
	tok, err := p.expect(tokenString)
	if err != nil {
		return "", err
	}
	if tok.literal == "" {
		return "", p.errorf(tok.pos, "empty key name")
	}
	if _, err := p.expect(tokenRBracket); err != nil {
		return "", err
	}
	return tok.literal, nil
}

// parseFilters consumes bracketed filters until the next node. A bracket
// holding a string starts a new node instead.
func (p *parserState) parseFilters() ([]queryir.Filter, error) {
	var filters []queryir.Filter
	for p.current().typ == tokenLBracket && p.peek(1).typ != tokenString {
		p.advance()
		var (
			f   queryir.Filter
			err error
		)
		if p.current().typ == tokenQuestion {
			f, err = p.parsePredicate()
		} else {
			f, err = p.parseUnion()
		}
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRBracket); err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func (p *parserState) parsePredicate() (queryir.Filter, error) {
	p.advance() // '?'
	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	return queryir.Predicate{Expr: expr}, nil
}

func (p *parserState) parseUnion() (queryir.Filter, error) {
	var selectors []queryir.Selector
	for {
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
		if p.current().typ != tokenComma {
			break
		}
		p.advance()
	}
	return queryir.Union{Selectors: selectors}, nil
}

func (p *parserState) parseSelector() (queryir.Selector, error) {
	if p.current().typ == tokenStar {
		p.advance()
		return queryir.Wildcard{}, nil
	}

	// [start] ':' [end] [':' [step]]
	var bounds [3]*int
	part := 0
	sawColon := false
	for {
		if p.current().typ != tokenColon {
			n, ok, err := p.parseOptionalInt()
			if err != nil {
				return nil, err
			}
			if ok {
				bounds[part] = &n
			}
		}
		if p.current().typ != tokenColon {
			break
		}
		if part == 2 {
			return nil, p.errorf(p.current().pos, "slice takes at most three parts")
		}
		p.advance()
		sawColon = true
		part++
	}

	if !sawColon {
		if bounds[0] == nil {
			return nil, p.errorf(p.current().pos, "expected index, slice or '*', found %s", p.current().describe())
		}
		return queryir.Index{Value: *bounds[0]}, nil
	}
	return queryir.Slice{Start: bounds[0], End: bounds[1], Step: bounds[2]}, nil
}

// parseOptionalInt reads a signed integer if one is present.
func (p *parserState) parseOptionalInt() (int, bool, error) {
	sign := 1
	start := p.current()
	switch start.typ {
	case tokenMinus:
		sign = -1
		p.advance()
	case tokenPlus:
		p.advance()
	}

	tok := p.current()
	if tok.typ != tokenNumber {
		if tok.pos != start.pos {
			return 0, false, p.errorf(tok.pos, "expected integer after sign, found %s", tok.describe())
		}
		return 0, false, nil
	}
	n, err := strconv.Atoi(tok.literal)
	if err != nil {
		return 0, false, p.errorf(tok.pos, "index %s is not an integer", tok.literal)
	}
	p.advance()
	return sign * n, true, nil
}

func (p *parserState) parseExpr() (queryir.Expr, error) {
	return p.parseOr()
}

func (p *parserState) parseOr() (queryir.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = queryir.Binary{Op: queryir.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parserState) parseAnd() (queryir.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.keyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = queryir.Binary{Op: queryir.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parserState) parseNot() (queryir.Expr, error) {
	if p.keyword("not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return queryir.Unary{Op: queryir.OpNot, Operand: operand}, nil
	}
	return p.parseIn()
}

func (p *parserState) parseIn() (queryir.Expr, error) {
	operand, err := p.parseCmp()
	if err != nil {
		return nil, err
	}

	negated := false
	switch {
	case p.keyword("in"):
	case p.keyword("not") && isKeyword(p.peek(1), "in"):
		negated = true
		p.advance()
	default:
		return operand, nil
	}
	p.advance() // 'in'

	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}
	var list []queryir.Expr
	for {
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		if p.current().typ != tokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	return queryir.In{Operand: operand, List: list, Negated: negated}, nil
}

var comparisonOps = map[tokenType]string{
	tokenEqual:        queryir.OpEq,
	tokenNotEqual:     queryir.OpNe,
	tokenLess:         queryir.OpLt,
	tokenLessEqual:    queryir.OpLe,
	tokenGreater:      queryir.OpGt,
	tokenGreaterEqual: queryir.OpGe,
}

func (p *parserState) parseCmp() (queryir.Expr, error) {
	left, err := p.parseLike()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOps[p.current().typ]
	if !ok {
		return left, nil
	}
	p.advance()
	right, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	return queryir.Binary{Op: op, Left: left, Right: right}, nil
}

func (p *parserState) parseLike() (queryir.Expr, error) {
	operand, err := p.parseAdd()
	if err != nil {
		return nil, err
	}

	negated := false
	switch {
	case p.keyword("like"):
	case p.keyword("not") && isKeyword(p.peek(1), "like"):
		negated = true
		p.advance()
	default:
		return operand, nil
	}
	p.advance() // 'like'

	tok := p.current()
	if tok.typ != tokenString {
		return nil, p.errorf(tok.pos, "like needs a string pattern, found %s", tok.describe())
	}
	p.advance()
	return queryir.Like{Operand: operand, Pattern: tok.literal, Negated: negated}, nil
}

func (p *parserState) parseAdd() (queryir.Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().typ {
		case tokenPlus:
			op = queryir.OpAdd
		case tokenMinus:
			op = queryir.OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = queryir.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parserState) parseMul() (queryir.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().typ {
		case tokenStar:
			op = queryir.OpMul
		case tokenSlash:
			op = queryir.OpDiv
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = queryir.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parserState) parseUnary() (queryir.Expr, error) {
	switch p.current().typ {
	case tokenMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := operand.(queryir.Literal); ok {
			switch v := lit.Value.(type) {
			case int64:
				return queryir.Literal{Value: -v}, nil
			case float64:
				return queryir.Literal{Value: -v}, nil
			}
		}
		return queryir.Unary{Op: queryir.OpNeg, Operand: operand}, nil
	case tokenPlus:
		p.advance()
		return p.parseUnary()
	}
	return p.parseAtom()
}

func (p *parserState) parseAtom() (queryir.Expr, error) {
	tok := p.current()

	switch tok.typ {
	case tokenNumber:
		p.advance()
		return p.numberLiteral(tok)
	case tokenString:
		p.advance()
		return queryir.Literal{Value: tok.literal}, nil
	case tokenAt:
		p.advance()
		return p.parseChildRef()
	case tokenLParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	case tokenName:
		switch strings.ToLower(tok.literal) {
		case "true":
			p.advance()
			return queryir.Literal{Value: true}, nil
		case "false":
			p.advance()
			return queryir.Literal{Value: false}, nil
		case "null":
			p.advance()
			return queryir.Literal{Value: nil}, nil
		}
		if p.peek(1).typ == tokenLParen {
			return p.parseCall()
		}
		return nil, p.errorf(tok.pos, "unknown identifier %q (field references start with '@')", tok.literal)
	}

	return nil, p.errorf(tok.pos, "expected expression, found %s", tok.describe())
}

func (p *parserState) numberLiteral(tok token) (queryir.Expr, error) {
	if !strings.ContainsAny(tok.literal, ".eE") {
		if n, err := strconv.ParseInt(tok.literal, 10, 64); err == nil {
			return queryir.Literal{Value: n}, nil
		}
	}
	f, err := strconv.ParseFloat(tok.literal, 64)
	if err != nil {
		return nil, p.errorf(tok.pos, "invalid number %s", tok.literal)
	}
	return queryir.Literal{Value: f}, nil
}

func (p *parserState) parseChildRef() (queryir.Expr, error) {
	var path []string
	for {
		switch p.current().typ {
		case tokenDot:
			p.advance()
			tok := p.current()
			if tok.typ != tokenName && tok.typ != tokenNumber {
				return nil, p.errorf(tok.pos, "expected name after '@.', found %s", tok.describe())
			}
			p.advance()
			path = append(path, tok.literal)
		case tokenLBracket:
			if p.peek(1).typ != tokenString {
				return queryir.ChildRef{Path: path}, nil
			}
			name, err := p.parseBracketName()
			if err != nil {
				return nil, err
			}
			path = append(path, name)
		default:
			return queryir.ChildRef{Path: path}, nil
		}
	}
}

func (p *parserState) parseCall() (queryir.Expr, error) {
	name := strings.ToLower(p.advance().literal)
	p.advance() // '('

	var args []queryir.Expr
	if p.current().typ != tokenRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.current().typ != tokenComma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	return queryir.Call{Name: name, Args: args}, nil
}
