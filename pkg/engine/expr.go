package engine

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	pos  int
	text string
	num  float64
}

func (t token) isOperator() bool {
	return t.kind == tokPlus || t.kind == tokMinus || t.kind == tokStar || t.kind == tokSlash
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return "number " + t.text
	case tokIdent:
		return "identifier " + t.text
	}
	return fmt.Sprintf("%q", t.text)
}

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// validIdent reports whether s matches [a-z][a-z0-9_]*.
func validIdent(s string) bool {
	if s == "" || !isLower(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isLower(c) && !isDigit(c) && c != '_' {
			return false
		}
	}
	return true
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || c == '.':
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			text := src[start:i]
			if text[len(text)-1] == '.' {
				return nil, &ParseError{Pos: start, Reason: "malformed number " + text}
			}
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &ParseError{Pos: start, Reason: "malformed number " + text}
			}
			toks = append(toks, token{kind: tokNumber, pos: start, text: text, num: v})
		case isLower(c):
			start := i
			for i < len(src) && (isLower(src[i]) || isDigit(src[i]) || src[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, pos: start, text: src[start:i]})
		default:
			var k tokenKind
			switch c {
			case '+':
				k = tokPlus
			case '-':
				k = tokMinus
			case '*':
				k = tokStar
			case '/':
				k = tokSlash
			case '(':
				k = tokLParen
			case ')':
				k = tokRParen
			default:
				return nil, &ParseError{Pos: i, Reason: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, token{kind: k, pos: i, text: string(c)})
			i++
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

type node interface {
	eval(b map[string]float64) (float64, error)
}

type numberNode struct{ v float64 }

type identNode struct {
	name string
	pos  int
}

type negNode struct{ x node }

type binaryNode struct {
	op   tokenKind
	pos  int
	l, r node
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) prev() token {
	if p.i == 0 {
		return token{kind: tokEOF}
	}
	return p.toks[p.i-1]
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokPlus || k == tokMinus; k = p.peek().kind {
		op := p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op.kind, pos: op.pos, l: left, r: right}
	}
	return left, nil
}

// term := unary (('*' | '/') unary)*
func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokStar || k == tokSlash; k = p.peek().kind {
		op := p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op.kind, pos: op.pos, l: left, r: right}
	}
	return left, nil
}

// unary := '-' unary | primary
func (p *parser) unary() (node, error) {
	if p.peek().kind == tokMinus {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &negNode{x: x}, nil
	}
	return p.primary()
}

// primary := number | ident | '(' expr ')'
func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &numberNode{v: t.num}, nil
	case tokIdent:
		return &identNode{name: t.text, pos: t.pos}, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, &ParseError{Pos: t.pos, Reason: "unbalanced parentheses: missing ')'"}
		}
		p.next()
		return inner, nil
	case tokEOF:
		prev := p.prev()
		if prev.isOperator() {
			return nil, &ParseError{Pos: prev.pos, Reason: fmt.Sprintf("trailing operator %q", prev.text)}
		}
		if prev.kind == tokLParen {
			return nil, &ParseError{Pos: prev.pos, Reason: "unbalanced parentheses: missing ')'"}
		}
		return nil, &ParseError{Pos: t.pos, Reason: "unexpected end of expression"}
	case tokRParen:
		return nil, &ParseError{Pos: t.pos, Reason: "unexpected ')'"}
	}
	// t is an operator other than unary minus; look at the token before it.
	if p.i >= 2 && p.toks[p.i-2].isOperator() {
		return nil, &ParseError{Pos: t.pos, Reason: fmt.Sprintf("two operators in a row: %q after %q", t.text, p.toks[p.i-2].text)}
	}
	return nil, &ParseError{Pos: t.pos, Reason: "expected operand, found " + t.describe()}
}

// Compiled is a parsed, evaluable expression.
type Compiled struct {
	src    string
	root   node
	idents []string
}

func (c *Compiled) Source() string { return c.src }

// Identifiers returns the distinct identifiers in order of first appearance.
func (c *Compiled) Identifiers() []string {
	out := make([]string, len(c.idents))
	copy(out, c.idents)
	return out
}

// Parse compiles an expression without checking identifiers against a known set.
func Parse(src string) (*Compiled, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	if toks[0].kind == tokEOF {
		return nil, &ParseError{Pos: 0, Reason: "empty expression"}
	}
	p := &parser{toks: toks}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokRParen {
			return nil, &ParseError{Pos: t.pos, Reason: "unbalanced parentheses: unexpected ')'"}
		}
		return nil, &ParseError{Pos: t.pos, Reason: "unexpected " + t.describe()}
	}

	var idents []string
	seen := map[string]bool{}
	for _, t := range toks {
		if t.kind == tokIdent && !seen[t.text] {
			seen[t.text] = true
			idents = append(idents, t.text)
		}
	}
	return &Compiled{src: src, root: root, idents: idents}, nil
}

// Compile parses src and checks every identifier against known.
func Compile(src string, known map[string]bool) (*Compiled, error) {
	c, err := Parse(src)
	if err != nil {
		return nil, err
	}
	for _, id := range c.idents {
		if !known[id] {
			return nil, &UnknownIdentifierError{Name: id}
		}
	}
	return c, nil
}
