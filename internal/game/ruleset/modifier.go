package ruleset

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/effect"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// MaxHP is the modifier a Class contributes hit points to.
const MaxHP = "Max HP"

// Context is a character seen from the resource being evaluated.
type Context interface {
	effect.Context
	// ChoiceRef returns the answer to c on the current resource, read as a
	// resource reference.
	ChoiceRef(c choice.Choice) (rref.Ref, bool, error)
	// LevelOf returns the Level choice of owner, defaulting to 1.
	LevelOf(owner rref.Ref) (stats.Level, error)
	// ClassAndLevel returns the character's class and its level.
	ClassAndLevel() (rref.Ref, stats.Level, bool, error)
}

// Modifier returns r's contribution to label. Conditions are only checked
// when r has something to contribute to label.
//
// Postcondition: when r's requirements reject, the result is the empty
// modifier regardless of the individual effects' conditions.
func Modifier(r Resource, label string, ctx Context) (bonus.Modifier, error) {
	var m bonus.Modifier
	c := r.Base()
	cls, isClass := r.(*Class)
	var targeting []effect.Effect
	for _, e := range c.Effects {
		if effect.Targets(e, label) {
			targeting = append(targeting, e)
		}
	}
	if len(targeting) == 0 && !(isClass && label == MaxHP) {
		return m, nil
	}
	rejected, err := c.Requirements.Reject(ctx)
	if err != nil || rejected {
		return m, err
	}
	for _, e := range targeting {
		rejected, err := e.When().Reject(ctx)
		if err != nil {
			return bonus.Modifier{}, err
		}
		if rejected {
			continue
		}
		em, err := e.Modifier(label, ctx)
		if err != nil {
			return bonus.Modifier{}, err
		}
		m = m.Add(em)
	}
	if isClass && label == MaxHP {
		hp, err := cls.maxHP(ctx)
		if err != nil {
			return bonus.Modifier{}, err
		}
		m = m.Add(hp)
	}
	return m, nil
}

// maxHP contributes hit points only when c is the character's one class.
// A second class is a consistency error from ClassAndLevel.
func (c *Class) maxHP(ctx Context) (bonus.Modifier, error) {
	class, level, ok, err := ctx.ClassAndLevel()
	if err != nil {
		return bonus.Modifier{}, err
	}
	if !ok || class.Name != c.Name {
		ctx.Logger().Debug("class hit points not counted",
			zap.String("class", c.Name),
			zap.Bool("has_class", ok),
			zap.String("character_class", class.Name),
		)
		return bonus.Modifier{}, nil
	}
	perLevel, err := c.HPPerLevel.EvaluateOr(ctx, 1)
	if err != nil {
		return bonus.Modifier{}, err
	}
	return bonus.FromBonus(bonus.BonusOf(bonus.Untyped, max(perLevel, 1)).MulLevel(level)), nil
}

// Granted returns the references r grants the character in its current
// state: specific grants whose conditions pass, the answers to resource
// choices, and for a Class, its advancement up to the character's level.
func Granted(r Resource, ctx Context) ([]rref.Ref, error) {
	c := r.Base()
	rejected, err := c.Requirements.Reject(ctx)
	if err != nil || rejected {
		return nil, err
	}
	var out []rref.Ref
	for _, e := range c.Effects {
		switch g := e.(type) {
		case effect.GrantSpecificResource:
			refs, err := effect.ActiveResources(g, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, refs...)
		case effect.GrantResourceChoice:
			rejected, err := g.Conditions.Reject(ctx)
			if err != nil {
				return nil, err
			}
			if rejected {
				continue
			}
			ref, ok, err := ctx.ChoiceRef(g.Choice)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if !ref.IsTyped() && g.Type != rref.AnyType {
				ref = ref.WithType(g.Type)
			}
			out = append(out, ref)
		}
	}
	if cls, ok := r.(*Class); ok {
		features, err := cls.advancement(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, features...)
	}
	return out, nil
}

func (c *Class) advancement(ctx Context) ([]rref.Ref, error) {
	class, level, ok, err := ctx.ClassAndLevel()
	if err != nil {
		return nil, err
	}
	if !ok || class.Name != c.Name {
		ctx.Logger().Debug("class advancement not granted",
			zap.String("class", c.Name),
			zap.Bool("has_class", ok),
			zap.String("character_class", class.Name),
		)
		return nil, nil
	}
	levels := make([]stats.Level, 0, len(c.Advancement))
	for l := range c.Advancement {
		if l <= level {
			levels = append(levels, l)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	var out []rref.Ref
	for _, l := range levels {
		for _, ref := range c.Advancement[l] {
			if !ref.IsTyped() {
				ref = ref.WithType(rref.ClassFeature)
			}
			out = append(out, ref)
		}
	}
	return out, nil
}
