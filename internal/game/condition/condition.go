// Package condition implements the predicate trees that gate resource
// effects and requirements.
package condition

import (
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// Context answers questions about the character a Condition is checked
// against. Errors are reserved for failures that must abort evaluation.
type Context interface {
	HasResource(r rref.Ref) (bool, error)
	WornArmorCategory() (stats.ArmorCategory, error)
	HasItemWithTraits(slot stats.ItemSlot, traits []string) (bool, error)
	ProficiencyRank(target string) (stats.Proficiency, error)
	// EvalScript runs a predicate script. A script that fails to run
	// reports true.
	EvalScript(source string) (bool, error)
}

// Condition is a predicate tree. Reject reports whether the condition
// blocks whatever it gates.
type Condition interface {
	Reject(ctx Context) (bool, error)
}

// None never rejects.
type None struct{}

func (None) Reject(Context) (bool, error) { return false, nil }

// Not wraps a condition. Rejection passes through from the inner condition
// unchanged; it does not invert. Existing rule content is written against
// this truth table, so changing it needs sign-off from the content owners.
type Not struct {
	Condition Condition
}

func (n Not) Reject(ctx Context) (bool, error) {
	return n.Condition.Reject(ctx)
}

// Or rejects when any member rejects.
type Or []Condition

func (o Or) Reject(ctx Context) (bool, error) {
	for _, c := range o {
		rejected, err := c.Reject(ctx)
		if err != nil {
			return false, err
		}
		if rejected {
			return true, nil
		}
	}
	return false, nil
}

// And rejects only when every member rejects.
type And []Condition

func (a And) Reject(ctx Context) (bool, error) {
	for _, c := range a {
		rejected, err := c.Reject(ctx)
		if err != nil {
			return false, err
		}
		if !rejected {
			return false, nil
		}
	}
	return true, nil
}

// ArmorCategory rejects unless the character's worn armor is of Category.
type ArmorCategory struct {
	Category stats.ArmorCategory
}

func (a ArmorCategory) Reject(ctx Context) (bool, error) {
	worn, err := ctx.WornArmorCategory()
	if err != nil {
		return false, err
	}
	return worn != a.Category, nil
}

// HaveResource rejects unless the character has acquired Ref.
type HaveResource struct {
	Ref rref.Ref
}

func (h HaveResource) Reject(ctx Context) (bool, error) {
	ok, err := ctx.HasResource(h.Ref)
	return !ok, err
}

// ItemTrait rejects unless an acquired item in Slot carries every trait.
type ItemTrait struct {
	Slot   stats.ItemSlot
	Traits []string
}

func (i ItemTrait) Reject(ctx Context) (bool, error) {
	ok, err := ctx.HasItemWithTraits(i.Slot, i.Traits)
	return !ok, err
}

// Proficiency rejects when the character's rank in Target is below Rank, or
// differs from it when Exactly is set.
type Proficiency struct {
	Target  string
	Rank    stats.Proficiency
	Exactly bool
}

func (p Proficiency) Reject(ctx Context) (bool, error) {
	rank, err := ctx.ProficiencyRank(p.Target)
	if err != nil {
		return false, err
	}
	if p.Exactly {
		return rank != p.Rank, nil
	}
	return rank < p.Rank, nil
}

// Unenforced is a condition the engine cannot check. It never rejects and is
// surfaced for manual adjudication. Known marks text recognized as a
// condition whose checking is simply not implemented.
type Unenforced struct {
	Text  string
	Known bool
}

func (Unenforced) Reject(Context) (bool, error) { return false, nil }

// Script rejects when its Lua predicate returns false.
type Script struct {
	Source string
}

func (s Script) Reject(ctx Context) (bool, error) {
	ok, err := ctx.EvalScript(s.Source)
	return !ok, err
}

// Join conjoins two conditions, flattening And lists and dropping None.
func Join(lhs, rhs Condition) Condition {
	if isNone(lhs) {
		return rhs
	}
	if isNone(rhs) {
		return lhs
	}
	l, lAnd := lhs.(And)
	r, rAnd := rhs.(And)
	switch {
	case lAnd && rAnd:
		return append(append(And{}, l...), r...)
	case lAnd:
		return append(append(And{}, l...), rhs)
	case rAnd:
		return append(And{lhs}, r...)
	default:
		return And{lhs, rhs}
	}
}

func isNone(c Condition) bool {
	if c == nil {
		return true
	}
	_, ok := c.(None)
	return ok
}

// CollectUnenforced returns every Unenforced atom in c, depth first.
func CollectUnenforced(c Condition) []Unenforced {
	var out []Unenforced
	var walk func(Condition)
	walk = func(c Condition) {
		switch v := c.(type) {
		case Unenforced:
			out = append(out, v)
		case Not:
			walk(v.Condition)
		case Or:
			for _, x := range v {
				walk(x)
			}
		case And:
			for _, x := range v {
				walk(x)
			}
		case Conditions:
			walk(v.Condition)
		}
	}
	walk(c)
	return out
}

// Conditions is a possibly empty condition, usable as a struct field.
// The zero value never rejects.
type Conditions struct {
	Condition Condition
}

// Of wraps c.
func Of(c Condition) Conditions {
	return Conditions{Condition: c}
}

func (c Conditions) Reject(ctx Context) (bool, error) {
	if c.Condition == nil {
		return false, nil
	}
	return c.Condition.Reject(ctx)
}

// IsNone reports whether c can never reject.
func (c Conditions) IsNone() bool {
	return isNone(c.Condition)
}

func (c Conditions) IsZero() bool { return c.IsNone() }

// And conjoins other onto c.
func (c Conditions) And(other Condition) Conditions {
	return Conditions{Condition: Join(c.Condition, other)}
}

// Unenforced lists the unenforced atoms in c.
func (c Conditions) Unenforced() []Unenforced {
	return CollectUnenforced(c.Condition)
}
