package qubo

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// The expression grammar is deliberately small: arithmetic over numeric
// literals and indexed binary variables. It replaces the general-purpose
// evaluator the service originally exposed, which could execute arbitrary
// code.
//
//	expr    := term (('+' | '-') term)*
//	term    := unary ('*' unary)*
//	unary   := ('+' | '-') unary | power
//	power   := primary (('^' | '**') uint)?
//	primary := number | ident ('[' int (',' int)* ']')? | '(' expr ')'

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenPower // '^' or '**'
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == '+':
		l.pos++
		return token{tokenPlus, "+", start}, nil
	case c == '-':
		l.pos++
		return token{tokenMinus, "-", start}, nil
	case c == '*':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '*' {
			l.pos++
			return token{tokenPower, "**", start}, nil
		}
		return token{tokenStar, "*", start}, nil
	case c == '^':
		l.pos++
		return token{tokenPower, "^", start}, nil
	case c == '(':
		l.pos++
		return token{tokenLParen, "(", start}, nil
	case c == ')':
		l.pos++
		return token{tokenRParen, ")", start}, nil
	case c == '[':
		l.pos++
		return token{tokenLBracket, "[", start}, nil
	case c == ']':
		l.pos++
		return token{tokenRBracket, "]", start}, nil
	case c == ',':
		l.pos++
		return token{tokenComma, ",", start}, nil
	case c >= '0' && c <= '9' || c == '.':
		for l.pos < len(l.input) && (l.input[l.pos] >= '0' && l.input[l.pos] <= '9' || l.input[l.pos] == '.') {
			l.pos++
		}
		return token{tokenNumber, l.input[start:l.pos], start}, nil
	case unicode.IsLetter(rune(c)) || c == '_':
		for l.pos < len(l.input) {
			r := rune(l.input[l.pos])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			l.pos++
		}
		return token{tokenIdent, l.input[start:l.pos], start}, nil
	}

	return token{}, fmt.Errorf("unexpected character %q at position %d", c, start)
}

type parser struct {
	lex      *lexer
	current  token
	registry *Registry
}

// Parse evaluates an expression string into an expanded polynomial over
// variables resolved through the given registry.
func Parse(input string, registry *Registry) (*Polynomial, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("expression is empty")
	}

	p := &parser{lex: &lexer{input: input}, registry: registry}
	if err := p.advance(); err != nil {
		return nil, err
	}

	poly, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.current.kind != tokenEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", p.current.text, p.current.pos)
	}
	return poly, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.current.kind != kind {
		return fmt.Errorf("expected %s at position %d, got %q", what, p.current.pos, p.current.text)
	}
	return p.advance()
}

func (p *parser) parseExpr() (*Polynomial, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.current.kind == tokenPlus || p.current.kind == tokenMinus {
		op := p.current.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if op == tokenPlus {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
	return left, nil
}

func (p *parser) parseTerm() (*Polynomial, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.current.kind == tokenStar {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = left.Mul(right)
	}
	return left, nil
}

func (p *parser) parseUnary() (*Polynomial, error) {
	switch p.current.kind {
	case tokenMinus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return inner.Scale(-1), nil
	case tokenPlus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*Polynomial, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.current.kind != tokenPower {
		return base, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.current.kind != tokenNumber {
		return nil, fmt.Errorf("expected integer exponent at position %d, got %q", p.current.pos, p.current.text)
	}
	exp, err := strconv.Atoi(p.current.text)
	if err != nil || exp < 0 {
		return nil, fmt.Errorf("exponent must be a nonnegative integer, got %q", p.current.text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return base.Pow(exp), nil
}

func (p *parser) parsePrimary() (*Polynomial, error) {
	switch p.current.kind {
	case tokenNumber:
		value, err := strconv.ParseFloat(p.current.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", p.current.text, p.current.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return constantPolynomial(value), nil

	case tokenIdent:
		name := p.current.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.current.kind != tokenLBracket {
			return variablePolynomial(p.registry.Lookup(name)), nil
		}
		indices, err := p.parseIndices()
		if err != nil {
			return nil, err
		}
		return variablePolynomial(p.registry.Lookup(name, indices...)), nil

	case tokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	return nil, fmt.Errorf("unexpected token %q at position %d", p.current.text, p.current.pos)
}

func (p *parser) parseIndices() ([]int, error) {
	if err := p.expect(tokenLBracket, "'['"); err != nil {
		return nil, err
	}
	var indices []int
	for {
		if p.current.kind != tokenNumber {
			return nil, fmt.Errorf("expected integer index at position %d, got %q", p.current.pos, p.current.text)
		}
		idx, err := strconv.Atoi(p.current.text)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q at position %d", p.current.text, p.current.pos)
		}
		indices = append(indices, idx)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.current.kind == tokenComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expect(tokenRBracket, "']'"); err != nil {
		return nil, err
	}
	return indices, nil
}
