// Package effect defines what a resource does for a character: grant
// bonuses and penalties, grant further resources, or raise proficiencies.
package effect

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/calc"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/condition"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// FocusPoolSize is the modifier raised by focus pool effects.
const FocusPoolSize = "Focus Pool Size"

// Context is everything an effect may read while being evaluated.
type Context interface {
	calc.Context
	condition.Context
	Logger() *zap.Logger
}

// Effect is one of the concrete effect types in this package.
type Effect interface {
	// When returns the conditions under which the effect is active.
	When() condition.Conditions
	// Modifier returns the effect's contribution to label. Effects that do
	// not touch label contribute the empty modifier.
	Modifier(label string, ctx Context) (bonus.Modifier, error)
}

// Common carries the fields every effect shares.
type Common struct {
	Conditions condition.Conditions `yaml:"conditions,omitempty"`
}

func (c Common) When() condition.Conditions { return c.Conditions }

// AddBonus adds a typed bonus of Value to the modifier named To.
type AddBonus struct {
	Common `yaml:",inline"`
	Type   bonus.Type `yaml:"type"`
	To     string     `yaml:"to"`
	Value  calc.Expr  `yaml:"value"`
}

func (e AddBonus) Modifier(label string, ctx Context) (bonus.Modifier, error) {
	if label != e.To {
		return bonus.Modifier{}, nil
	}
	v, err := e.Value.EvaluateOr(ctx, 0)
	if err != nil {
		return bonus.Modifier{}, err
	}
	return bonus.FromBonus(bonus.BonusOf(e.Type, v)), nil
}

// AddPenalty adds a typed penalty of magnitude Value to the modifier named To.
type AddPenalty struct {
	Common `yaml:",inline"`
	Type   bonus.Type `yaml:"type"`
	To     string     `yaml:"to"`
	Value  calc.Expr  `yaml:"value"`
}

// Modifier treats Value as a magnitude, so "2" and "-2" both yield -2.
func (e AddPenalty) Modifier(label string, ctx Context) (bonus.Modifier, error) {
	if label != e.To {
		return bonus.Modifier{}, nil
	}
	v, err := e.Value.EvaluateOr(ctx, 0)
	if err != nil {
		return bonus.Modifier{}, err
	}
	p, err := bonus.PenaltyOf(e.Type, v)
	if err != nil {
		ctx.Logger().Warn("penalty ignored",
			zap.String("to", e.To),
			zap.Stringer("type", e.Type),
			zap.Error(err),
		)
		return bonus.Modifier{}, nil
	}
	return bonus.FromPenalty(p), nil
}

// AddFocusPoolPoint adds Points (default 1) to FocusPoolSize.
type AddFocusPoolPoint struct {
	Common `yaml:",inline"`
	Points calc.Expr `yaml:"points,omitempty"`
}

func (e AddFocusPoolPoint) Modifier(label string, ctx Context) (bonus.Modifier, error) {
	if label != FocusPoolSize {
		return bonus.Modifier{}, nil
	}
	v, err := e.Points.EvaluateOr(ctx, 1)
	if err != nil {
		return bonus.Modifier{}, err
	}
	return bonus.FromBonus(bonus.BonusOf(bonus.Untyped, v)), nil
}

// AddSingleFocusPoolPoint adds exactly one point to FocusPoolSize.
type AddSingleFocusPoolPoint struct {
	Common `yaml:",inline"`
}

func (AddSingleFocusPoolPoint) Modifier(label string, _ Context) (bonus.Modifier, error) {
	if label != FocusPoolSize {
		return bonus.Modifier{}, nil
	}
	return bonus.FromNumber(1), nil
}

// GrantSpecificResource grants Resource while its conditions hold.
type GrantSpecificResource struct {
	Common   `yaml:",inline"`
	Resource rref.Ref `yaml:"resource"`
}

func (GrantSpecificResource) Modifier(string, Context) (bonus.Modifier, error) {
	return bonus.Modifier{}, nil
}

// GrantResourceChoice grants whatever resource of Type the player picked for
// Choice.
type GrantResourceChoice struct {
	Common `yaml:",inline"`
	Choice choice.Choice `yaml:"choice"`
	Type   rref.Type     `yaml:"type"`
}

func (GrantResourceChoice) Modifier(string, Context) (bonus.Modifier, error) {
	return bonus.Modifier{}, nil
}

// IncreaseProficiency raises the rank in In to Rank.
type IncreaseProficiency struct {
	Common `yaml:",inline"`
	In     string            `yaml:"in"`
	Rank   stats.Proficiency `yaml:"level"`
}

func (IncreaseProficiency) Modifier(string, Context) (bonus.Modifier, error) {
	return bonus.Modifier{}, nil
}

// SkillIncrease records a skill increase to be spent by the player.
type SkillIncrease struct {
	Common `yaml:",inline"`
}

func (SkillIncrease) Modifier(string, Context) (bonus.Modifier, error) {
	return bonus.Modifier{}, nil
}

// ActiveResources returns the resources e grants outright. Choice grants are
// resolved by the resource that owns the choice.
func ActiveResources(e Effect, ctx Context) ([]rref.Ref, error) {
	g, ok := e.(GrantSpecificResource)
	if !ok {
		return nil, nil
	}
	rejected, err := g.Conditions.Reject(ctx)
	if err != nil || rejected {
		return nil, err
	}
	return []rref.Ref{g.Resource}, nil
}

// ProficiencyIncrease reports the rank e sets for target, ignoring case.
// It does not check e's conditions.
func ProficiencyIncrease(e Effect, target string) (stats.Proficiency, bool) {
	ip, ok := e.(IncreaseProficiency)
	if !ok || choice.Fold(ip.In) != choice.Fold(target) {
		return stats.Untrained, false
	}
	return ip.Rank, true
}

// Targets reports whether e can contribute to the modifier named label.
func Targets(e Effect, label string) bool {
	switch v := e.(type) {
	case AddBonus:
		return v.To == label
	case AddPenalty:
		return v.To == label
	case AddFocusPoolPoint, AddSingleFocusPoolPoint:
		return label == FocusPoolSize
	}
	return false
}
