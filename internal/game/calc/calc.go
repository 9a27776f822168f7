// Package calc implements the small arithmetic language used by resource
// data: sums of named modifiers, player choices and modifier literals.
package calc

import (
	"strings"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
)

// Context supplies the character state a Calculation reads.
type Context interface {
	// ModifierTotal returns the total of the named modifier for the
	// character being evaluated.
	ModifierTotal(name string) (int, error)
	// ChoiceInt returns the numeric answer to c on the resource being
	// evaluated, or 0 when there is none.
	ChoiceInt(c choice.Choice) (int, error)
}

// Calculation is one of Named, Choice, Literal or Op.
//
// Evaluate only returns errors that abort the whole evaluation. Missing data
// evaluates to 0.
type Calculation interface {
	Evaluate(ctx Context) (int, error)
	String() string
	// sortRank orders terms during normalization: Op, Literal, Named, Choice.
	sortRank() int
}

// Named refers to another modifier by name, such as "STR bonus".
type Named string

func (n Named) Evaluate(ctx Context) (int, error) {
	return ctx.ModifierTotal(string(n))
}

func (n Named) String() string { return string(n) }

func (Named) sortRank() int { return 2 }

// Choice reads a numeric player choice.
type Choice struct {
	Key choice.Choice
}

func (c Choice) Evaluate(ctx Context) (int, error) {
	return ctx.ChoiceInt(c.Key)
}

func (c Choice) String() string { return c.Key.Token() }

func (Choice) sortRank() int { return 3 }

// Literal is a constant modifier.
type Literal struct {
	Modifier bonus.Modifier
}

// FromNumber is an untyped literal.
func FromNumber(n int) Literal {
	return Literal{Modifier: bonus.FromNumber(n)}
}

func (l Literal) Evaluate(Context) (int, error) {
	return l.Modifier.Total(), nil
}

func (l Literal) String() string { return l.Modifier.String() }

func (Literal) sortRank() int { return 1 }

// Operator combines the terms of an Op.
type Operator int

const (
	Add Operator = iota
)

func (o Operator) Apply(a, b int) int {
	return a + b
}

func (o Operator) String() string {
	return "+"
}

// Op folds its terms left to right with Operator. An empty Op is 0.
type Op struct {
	Operator Operator
	Terms    []Calculation
}

// Sum is an Add over terms.
func Sum(terms ...Calculation) Op {
	return Op{Operator: Add, Terms: terms}
}

func (o Op) Evaluate(ctx Context) (int, error) {
	if len(o.Terms) == 0 {
		return 0, nil
	}
	value, err := o.Terms[0].Evaluate(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range o.Terms[1:] {
		next, err := t.Evaluate(ctx)
		if err != nil {
			return 0, err
		}
		value = o.Operator.Apply(value, next)
	}
	return value, nil
}

func (o Op) String() string {
	var sb strings.Builder
	for i, t := range o.Terms {
		if i > 0 {
			sb.WriteString(" " + o.Operator.String() + " ")
		}
		if _, nested := t.(Op); nested {
			sb.WriteString("(" + t.String() + ")")
			continue
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

func (Op) sortRank() int { return 0 }
