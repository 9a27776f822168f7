// Package bonus implements the typed modifier algebra: bonuses and penalties
// of the same type do not stack, untyped ones always do.
package bonus

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// Type is a bonus or penalty category.
type Type int

const (
	Untyped Type = iota
	Circumstance
	Item
	Proficiency
	Status
)

var typeNames = map[Type]string{
	Untyped:      "untyped",
	Circumstance: "circumstance",
	Item:         "item",
	Proficiency:  "proficiency",
	Status:       "status",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType parses a category name. The empty string is Untyped.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Untyped, nil
	}
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return Untyped, fmt.Errorf("bonus: unknown type %q", s)
}

// Bonus holds one value per typed category plus every untyped contribution.
// The zero value is the empty bonus.
type Bonus struct {
	Circumstance int
	Item         int
	Proficiency  int
	Status       int
	Untyped      []int
}

// BonusOf builds a single-category bonus. Typed values below zero are clamped
// to zero; untyped values are kept as-is.
func BonusOf(t Type, v int) Bonus {
	switch t {
	case Circumstance:
		return Bonus{Circumstance: max(v, 0)}
	case Item:
		return Bonus{Item: max(v, 0)}
	case Proficiency:
		return Bonus{Proficiency: v}
	case Status:
		return Bonus{Status: max(v, 0)}
	default:
		return Bonus{Untyped: []int{v}}
	}
}

// ProficiencyBonus is the proficiency-slot bonus for rank at level.
func ProficiencyBonus(rank stats.Proficiency, level stats.Level) Bonus {
	return Bonus{Proficiency: rank.Bonus(level)}
}

// Add combines two bonuses: typed slots keep the larger value, untyped
// contributions accumulate.
func (b Bonus) Add(o Bonus) Bonus {
	out := Bonus{
		Circumstance: max(b.Circumstance, o.Circumstance),
		Item:         max(b.Item, o.Item),
		Proficiency:  max(b.Proficiency, o.Proficiency),
		Status:       max(b.Status, o.Status),
	}
	if len(b.Untyped)+len(o.Untyped) > 0 {
		out.Untyped = make([]int, 0, len(b.Untyped)+len(o.Untyped))
		out.Untyped = append(append(out.Untyped, b.Untyped...), o.Untyped...)
	}
	return out
}

// MulLevel scales every slot except proficiency by level.
func (b Bonus) MulLevel(level stats.Level) Bonus {
	l := int(level)
	out := Bonus{
		Circumstance: b.Circumstance * l,
		Item:         b.Item * l,
		Proficiency:  b.Proficiency,
		Status:       b.Status * l,
	}
	for _, u := range b.Untyped {
		out.Untyped = append(out.Untyped, u*l)
	}
	return out
}

// UntypedSum is the sum of every untyped contribution.
func (b Bonus) UntypedSum() int {
	return sum(b.Untyped)
}

func (b Bonus) Total() int {
	return b.Circumstance + b.Item + b.Proficiency + b.Status + b.UntypedSum()
}

func (b Bonus) IsZero() bool {
	return b.Circumstance == 0 && b.Item == 0 && b.Proficiency == 0 && b.Status == 0 && b.UntypedSum() == 0
}

func (b Bonus) String() string {
	return fmt.Sprintf("%+d", b.Total())
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}
