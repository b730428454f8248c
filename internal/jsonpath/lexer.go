package jsonpath

import (
	"strings"
	"unicode"

	"github.com/roach88/jsondb/internal/queryir"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenDollar
	tokenAt
	tokenDot
	tokenDotDot
	tokenStar
	tokenLBracket
	tokenRBracket
	tokenLParen
	tokenRParen
	tokenComma
	tokenColon
	tokenQuestion
	tokenName
	tokenNumber
	tokenString
	tokenEqual
	tokenNotEqual
	tokenLess
	tokenLessEqual
	tokenGreater
	tokenGreaterEqual
	tokenPlus
	tokenMinus
	tokenSlash
)

var tokenNames = map[tokenType]string{
	tokenEOF:          "end of path",
	tokenDollar:       "'$'",
	tokenAt:           "'@'",
	tokenDot:          "'.'",
	tokenDotDot:       "'..'",
	tokenStar:         "'*'",
	tokenLBracket:     "'['",
	tokenRBracket:     "']'",
	tokenLParen:       "'('",
	tokenRParen:       "')'",
	tokenComma:        "','",
	tokenColon:        "':'",
	tokenQuestion:     "'?'",
	tokenName:         "name",
	tokenNumber:       "number",
	tokenString:       "string",
	tokenEqual:        "'='",
	tokenNotEqual:     "'!='",
	tokenLess:         "'<'",
	tokenLessEqual:    "'<='",
	tokenGreater:      "'>'",
	tokenGreaterEqual: "'>='",
	tokenPlus:         "'+'",
	tokenMinus:        "'-'",
	tokenSlash:        "'/'",
}

func (t tokenType) String() string {
	return tokenNames[t]
}

type token struct {
	typ     tokenType
	literal string
	pos     int
}

// describe renders a token for error messages.
func (t token) describe() string {
	switch t.typ {
	case tokenName, tokenNumber:
		return t.literal
	case tokenString:
		return queryir.Quote(t.literal)
	}
	return t.typ.String()
}

var punctuation = map[byte]tokenType{
	'$': tokenDollar,
	'@': tokenAt,
	'*': tokenStar,
	'[': tokenLBracket,
	']': tokenRBracket,
	'(': tokenLParen,
	')': tokenRParen,
	',': tokenComma,
	':': tokenColon,
	'?': tokenQuestion,
	'+': tokenPlus,
	'-': tokenMinus,
	'/': tokenSlash,
}

func lex(input string) ([]token, error) {
	tokens := make([]token, 0, len(input)/2)
	pos := 0

	for pos < len(input) {
		ch := input[pos]
		if unicode.IsSpace(rune(ch)) {
			pos++
			continue
		}

		if ch >= '0' && ch <= '9' && !afterDot(tokens) {
			tok, next := lexNumberOrName(input, pos)
			tokens = append(tokens, tok)
			pos = next
			continue
		}

		if queryir.IsNameRune(rune(ch)) {
			start := pos
			for pos < len(input) && queryir.IsNameRune(rune(input[pos])) {
				pos++
			}
			tokens = append(tokens, token{typ: tokenName, literal: input[start:pos], pos: start})
			continue
		}

		if ch == '\'' || ch == '"' {
			literal, next, err := lexString(input, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{typ: tokenString, literal: literal, pos: pos})
			pos = next
			continue
		}

		if typ, ok := punctuation[ch]; ok {
			tokens = append(tokens, token{typ: typ, pos: pos})
			pos++
			continue
		}

		two := ""
		if pos+1 < len(input) {
			two = input[pos : pos+2]
		}
		switch {
		case two == "..":
			tokens = append(tokens, token{typ: tokenDotDot, pos: pos})
			pos += 2
		case ch == '.':
			tokens = append(tokens, token{typ: tokenDot, pos: pos})
			pos++
		case two == "==":
			tokens = append(tokens, token{typ: tokenEqual, pos: pos})
			pos += 2
		case ch == '=':
			tokens = append(tokens, token{typ: tokenEqual, pos: pos})
			pos++
		case two == "!=", two == "<>":
			tokens = append(tokens, token{typ: tokenNotEqual, pos: pos})
			pos += 2
		case two == "<=":
			tokens = append(tokens, token{typ: tokenLessEqual, pos: pos})
			pos += 2
		case ch == '<':
			tokens = append(tokens, token{typ: tokenLess, pos: pos})
			pos++
		case two == ">=":
			tokens = append(tokens, token{typ: tokenGreaterEqual, pos: pos})
			pos += 2
		case ch == '>':
			tokens = append(tokens, token{typ: tokenGreater, pos: pos})
			pos++
		default:
			return nil, syntaxError(input, pos, "unexpected character %q", ch)
		}
	}

	tokens = append(tokens, token{typ: tokenEOF, pos: len(input)})
	return tokens, nil
}

// afterDot reports whether the next token is a key name ("$.0", "@..2nd"),
// which is never a number.
func afterDot(tokens []token) bool {
	if len(tokens) == 0 {
		return false
	}
	last := tokens[len(tokens)-1].typ
	return last == tokenDot || last == tokenDotDot
}

// lexNumberOrName scans digits with an optional fraction and exponent. A
// digit run that continues into letters (e.g. "2nd") is a name instead.
func lexNumberOrName(input string, start int) (token, int) {
	pos := start
	digits := func() {
		for pos < len(input) && input[pos] >= '0' && input[pos] <= '9' {
			pos++
		}
	}
	isDigit := func(i int) bool {
		return i < len(input) && input[i] >= '0' && input[i] <= '9'
	}

	digits()
	if pos < len(input) && input[pos] == '.' && isDigit(pos+1) {
		pos++
		digits()
	}
	if pos < len(input) && (input[pos] == 'e' || input[pos] == 'E') {
		exp := pos + 1
		if exp < len(input) && (input[exp] == '+' || input[exp] == '-') {
			exp++
		}
		if isDigit(exp) {
			pos = exp
			digits()
		}
	}

	if pos < len(input) && queryir.IsNameRune(rune(input[pos])) && !strings.ContainsAny(input[start:pos], ".eE") {
		for pos < len(input) && queryir.IsNameRune(rune(input[pos])) {
			pos++
		}
		return token{typ: tokenName, literal: input[start:pos], pos: start}, pos
	}
	return token{typ: tokenNumber, literal: input[start:pos], pos: start}, pos
}

func lexString(input string, start int) (string, int, error) {
	quote := input[start]
	var b strings.Builder

	for pos := start + 1; pos < len(input); pos++ {
		ch := input[pos]
		if ch == quote {
			return b.String(), pos + 1, nil
		}

		if ch == '\\' {
			pos++
			if pos >= len(input) {
				return "", 0, syntaxError(input, start, "unterminated escape sequence")
			}
			switch escaped := input[pos]; escaped {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(escaped)
			}
			continue
		}

		b.WriteByte(ch)
	}

	return "", 0, syntaxError(input, start, "unterminated string")
}
