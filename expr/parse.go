package expr

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// Parse reads an arithmetic expression in the model file syntax:
// numeric literals, alphabetic identifiers, + - * / ^ and
// parentheses. ^ denotes exponentiation and is right-associative.
func Parse(s string) (Expr, error) {
	p := &parser{input: s}
	p.next()
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", p.tok.text, p.tok.pos)
	}
	return e, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokBad
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	input string
	pos   int
	tok   token
}

func (p *parser) next() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.input) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	c := p.input[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		for p.pos < len(p.input) &&
			(p.input[p.pos] >= '0' && p.input[p.pos] <= '9' || p.input[p.pos] == '.') {
			p.pos++
		}
		p.tok = token{kind: tokNum, text: p.input[start:p.pos], pos: start}
	case unicode.IsLetter(rune(c)):
		for p.pos < len(p.input) && unicode.IsLetter(rune(p.input[p.pos])) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.input[start:p.pos], pos: start}
	case strings.ContainsRune("+-*/^", rune(c)):
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	default:
		p.tok = token{kind: tokBad, text: string(c), pos: start}
		p.pos++
	}
}

func (p *parser) parseSum() (Expr, error) {
	e, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	terms := []Expr{e}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		t, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			t = Neg(t)
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return NewAdd(terms...), nil
}

func (p *parser) parseProduct() (Expr, error) {
	e, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{e}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := p.tok.text
		p.next()
		f, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == "/" {
			f = NewPow(f, Int(-1))
		}
		factors = append(factors, f)
	}
	if len(factors) == 1 {
		return factors[0], nil
	}
	return NewMul(factors...), nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok.kind == tokOp && p.tok.text == "-" {
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Neg(e), nil
	}
	if p.tok.kind == tokOp && p.tok.text == "+" {
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokOp && p.tok.text == "^" {
		p.next()
		// right-associative: the exponent may itself be a power or
		// a unary minus
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewPow(base, exp), nil
	}
	return base, nil
}

func (p *parser) parseAtom() (Expr, error) {
	switch p.tok.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(p.tok.text)
		if !ok {
			return nil, fmt.Errorf("bad numeric literal %q at position %d", p.tok.text, p.tok.pos)
		}
		p.next()
		return NewNum(r), nil
	case tokIdent:
		name := p.tok.text
		p.next()
		return NewVar(name), nil
	case tokLParen:
		p.next()
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", p.tok.pos)
		}
		p.next()
		return e, nil
	}
	return nil, fmt.Errorf("unexpected %q at position %d", p.tok.text, p.tok.pos)
}
