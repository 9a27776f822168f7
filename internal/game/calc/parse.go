package calc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
)

var (
	literalPattern = regexp.MustCompile(`^[+-]?\d+(?: (?:circumstance|item|proficiency|status|untyped)\b)?`)
	namePattern    = regexp.MustCompile(`^\p{L}[\p{L}\p{N}_ ']*`)
)

// Parse reads an expression such as "STR bonus + $Level + 2 item" and
// returns its normalized form.
//
// Grammar:
//
//	expr := term ("+" term)*
//	term := "(" expr ")" | "$" name | literal | name
func Parse(s string) (Calculation, error) {
	p := &parser{src: s}
	c, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("calc: unexpected %q at offset %d in %q", p.src[p.pos:], p.pos, s)
	}
	return Normalize(c)
}

// MustParse is Parse for expressions known to be valid.
//
// Precondition: s must parse.
func MustParse(s string) Calculation {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expr() (Calculation, error) {
	first, err := p.term()
	if err != nil {
		return nil, err
	}
	terms := []Calculation{first}
	for {
		p.skipSpace()
		if p.peek() != '+' {
			break
		}
		p.pos++
		next, err := p.term()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return Sum(terms...), nil
}

func (p *parser) term() (Calculation, error) {
	p.skipSpace()
	rest := p.src[p.pos:]
	switch {
	case rest == "":
		return nil, fmt.Errorf("calc: unexpected end of expression %q", p.src)
	case rest[0] == '(':
		p.pos++
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, fmt.Errorf("calc: missing ')' at offset %d in %q", p.pos, p.src)
		}
		p.pos++
		return inner, nil
	case rest[0] == '$':
		name := strings.TrimRight(namePattern.FindString(rest[1:]), " ")
		if name == "" {
			return nil, fmt.Errorf("calc: empty choice name at offset %d in %q", p.pos, p.src)
		}
		p.pos += 1 + len(name)
		return Choice{Key: choice.Choice(name)}, nil
	}
	if lit := literalPattern.FindString(rest); lit != "" {
		m, err := bonus.Parse(lit)
		if err != nil {
			return nil, fmt.Errorf("calc: %w", err)
		}
		p.pos += len(lit)
		return Literal{Modifier: m}, nil
	}
	if raw := namePattern.FindString(rest); raw != "" {
		name := strings.TrimRight(raw, " ")
		p.pos += len(name)
		return Named(name), nil
	}
	return nil, fmt.Errorf("calc: unexpected %q at offset %d in %q", rest, p.pos, p.src)
}
