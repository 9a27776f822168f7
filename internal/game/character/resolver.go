package character

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/condition"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/effect"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
	"github.com/cory-johannsen/pf2e-sheet/internal/scripting"
)

var (
	// ErrMultipleClasses is returned when a character has acquired more than
	// one class.
	ErrMultipleClasses = errors.New("character: more than one class")
	// ErrNormalizationCap is returned when granting resources has not
	// reached a fixed point after maxNormalizeIterations passes.
	ErrNormalizationCap = errors.New("character: resource normalization did not settle")
)

const maxNormalizeIterations = 100

// Store resolves resource references. *ruleset.Registry satisfies it.
type Store interface {
	LookupImmediate(ref rref.Ref) (ruleset.Resource, bool)
}

// ScriptEvaluator evaluates Script condition atoms. *scripting.Manager
// satisfies it.
type ScriptEvaluator interface {
	EvalPredicate(src string, q scripting.Queries) (bool, error)
}

// Resolver evaluates characters against a resource store.
type Resolver struct {
	store   Store
	scripts ScriptEvaluator
	logger  *zap.Logger
}

// NewResolver returns a Resolver reading resources from store. scripts may be
// nil, in which case Script conditions never reject.
//
// Precondition: store and logger must be non-nil.
// Postcondition: Returns a non-nil *Resolver.
func NewResolver(store Store, scripts ScriptEvaluator, logger *zap.Logger) *Resolver {
	if store == nil {
		panic("character.NewResolver: precondition violated: store must be non-nil")
	}
	if logger == nil {
		panic("character.NewResolver: precondition violated: logger must be non-nil")
	}
	return &Resolver{store: store, scripts: scripts, logger: logger}
}

func (r *Resolver) resolve(ref rref.Ref) (ruleset.Resource, bool) {
	res, ok := r.store.LookupImmediate(ref)
	if !ok {
		r.logger.Debug("skipping unresolved resource", zap.Stringer("ref", ref))
	}
	return res, ok
}

// context returns the evaluation context for the resource res acquired as ref.
// res is nil for evaluations not tied to a resource.
func (r *Resolver) context(c *Character, ref rref.Ref, res ruleset.Resource, target string) *evalContext {
	return &evalContext{r: r, c: c, ref: ref, res: res, target: target}
}

// abilityOf returns the ability named by "<ABILITY> bonus".
func abilityOf(name string) (stats.Ability, bool) {
	base, ok := strings.CutSuffix(name, " bonus")
	if !ok {
		return "", false
	}
	for _, a := range stats.Abilities {
		if string(a) == base {
			return a, true
		}
	}
	return "", false
}

func isAbility(name string) bool {
	for _, a := range stats.Abilities {
		if string(a) == name {
			return true
		}
	}
	return false
}

// floorHalf returns floor(n / 2).
func floorHalf(n int) int {
	if n < 0 {
		return (n - 1) / 2
	}
	return n / 2
}

// Modifier aggregates the modifier called name over every acquired
// resource. target is passed through to calculations evaluated on the way.
//
// Ability scores start at an untyped 10, and "<ABILITY> bonus" starts at
// floor((score - 10) / 2).
//
// Postcondition: returns a *CircularEvaluationError when name is already
// being evaluated for c.
func (r *Resolver) Modifier(c *Character, name, target string) (bonus.Modifier, error) {
	if err := c.guard.enter(ModifierEval, name); err != nil {
		return bonus.Modifier{}, err
	}
	defer c.guard.exit(ModifierEval, name)

	var m bonus.Modifier
	switch {
	case isAbility(name):
		m = bonus.FromNumber(10)
	default:
		if a, ok := abilityOf(name); ok {
			score, err := r.Modifier(c, string(a), target)
			if err != nil {
				return bonus.Modifier{}, err
			}
			m = bonus.FromNumber(floorHalf(score.Total() - 10))
		}
	}

	for _, ref := range c.Resources() {
		res, ok := r.resolve(ref)
		if !ok {
			continue
		}
		key := ref.String() + " for " + name
		if err := c.guard.enter(ResourceEval, key); err != nil {
			return bonus.Modifier{}, err
		}
		rm, err := ruleset.Modifier(res, name, r.context(c, ref, res, target))
		c.guard.exit(ResourceEval, key)
		if err != nil {
			return bonus.Modifier{}, err
		}
		m = m.Add(rm)
	}
	return m, nil
}

// Choice returns the raw answer to ch on owner, or the character-wide answer
// when characterWide is set.
func (r *Resolver) Choice(c *Character, owner rref.Ref, ch choice.Choice, characterWide bool) (interface{}, bool, error) {
	key := owner.String() + " " + ch.Token()
	if characterWide {
		key = ch.Token()
	}
	if err := c.guard.enter(ChoiceEval, key); err != nil {
		return nil, false, err
	}
	defer c.guard.exit(ChoiceEval, key)
	if characterWide {
		v, ok := c.CharacterWideAnswer(ch)
		return v, ok, nil
	}
	v, ok := c.Answer(owner, ch)
	return v, ok, nil
}

// ChoiceInt returns the answer to ch on owner as an integer.
//
// Postcondition: an absent answer, or one that does not read as an integer,
// is reported absent; the latter is logged.
func (r *Resolver) ChoiceInt(c *Character, owner rref.Ref, ch choice.Choice, characterWide bool) (int, bool, error) {
	v, ok, err := r.Choice(c, owner, ch, characterWide)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		r.logger.Debug("choice answer is not an integer",
			zap.Stringer("owner", owner),
			zap.String("choice", ch.String()),
			zap.Error(err),
		)
		return 0, false, nil
	}
	return n, true, nil
}

// ChoiceRef returns the answer to ch on owner as a resource reference.
//
// Postcondition: an absent answer, or one that does not parse as a
// reference, is reported absent; the latter is logged.
func (r *Resolver) ChoiceRef(c *Character, owner rref.Ref, ch choice.Choice, characterWide bool) (rref.Ref, bool, error) {
	v, ok, err := r.Choice(c, owner, ch, characterWide)
	if err != nil || !ok {
		return rref.Ref{}, false, err
	}
	if ref, isRef := v.(rref.Ref); isRef {
		return ref, true, nil
	}
	s, err := cast.ToStringE(v)
	if err == nil {
		var ref rref.Ref
		if ref, err = rref.Parse(s); err == nil {
			return ref, true, nil
		}
	}
	r.logger.Debug("choice answer is not a resource reference",
		zap.Stringer("owner", owner),
		zap.String("choice", ch.String()),
		zap.Error(err),
	)
	return rref.Ref{}, false, nil
}

// Proficiency returns the highest rank in target granted by an
// IncreaseProficiency effect whose conditions, and whose resource's
// requirements, pass.
//
// Postcondition: returns stats.Untrained when nothing grants target.
func (r *Resolver) Proficiency(c *Character, target string) (stats.Proficiency, error) {
	key := choice.Fold(target)
	if err := c.guard.enter(ProficiencyEval, key); err != nil {
		return stats.Untrained, err
	}
	defer c.guard.exit(ProficiencyEval, key)

	best := stats.Untrained
	for _, ref := range c.Resources() {
		res, ok := r.resolve(ref)
		if !ok {
			continue
		}
		ctx := r.context(c, ref, res, target)
		var granted []effect.Effect
		for _, e := range res.Base().Effects {
			if _, ok := effect.ProficiencyIncrease(e, target); ok {
				granted = append(granted, e)
			}
		}
		if len(granted) == 0 {
			continue
		}
		rejected, err := res.Base().Requirements.Reject(ctx)
		if err != nil {
			return stats.Untrained, err
		}
		if rejected {
			continue
		}
		for _, e := range granted {
			rejected, err := e.When().Reject(ctx)
			if err != nil {
				return stats.Untrained, err
			}
			if rank, _ := effect.ProficiencyIncrease(e, target); !rejected && rank > best {
				best = rank
			}
		}
	}
	return best, nil
}

// ProficiencyBonus returns the proficiency bonus for target at the
// character's class level, or level 1 without a class.
func (r *Resolver) ProficiencyBonus(c *Character, target string) (bonus.Bonus, error) {
	rank, err := r.Proficiency(c, target)
	if err != nil {
		return bonus.Bonus{}, err
	}
	_, level, _, err := r.ClassAndLevel(c)
	if err != nil {
		return bonus.Bonus{}, err
	}
	return bonus.ProficiencyBonus(rank, level), nil
}

// levelOf returns the Level choice on owner, at least 1.
func (r *Resolver) levelOf(c *Character, owner rref.Ref) (stats.Level, error) {
	n, ok, err := r.ChoiceInt(c, owner, LevelChoice, false)
	if err != nil {
		return stats.MinLevel, err
	}
	if !ok || n < int(stats.MinLevel) {
		return stats.MinLevel, nil
	}
	return stats.Level(n), nil
}

// ClassAndLevel returns the character's class and its level.
//
// Postcondition: returns ok false without a class, and ErrMultipleClasses
// when more than one class is acquired. Without a class the level is 1.
func (r *Resolver) ClassAndLevel(c *Character) (rref.Ref, stats.Level, bool, error) {
	var classes []rref.Ref
	for _, ref := range c.Resources() {
		if ref.IsTyped() && ref.Type != rref.Class {
			continue
		}
		res, ok := r.store.LookupImmediate(ref)
		if !ok || res.Type() != rref.Class {
			continue
		}
		classes = append(classes, ruleset.RefOf(res))
	}
	switch len(classes) {
	case 0:
		return rref.Ref{}, stats.MinLevel, false, nil
	case 1:
		level, err := r.levelOf(c, classes[0])
		return classes[0], level, true, err
	}
	return rref.Ref{}, stats.MinLevel, false, fmt.Errorf("%w: %v", ErrMultipleClasses, classes)
}

// NormalizeResources acquires every resource granted by the character's
// resources until a pass adds nothing.
//
// Postcondition: returns the number of references added. A second call
// with no intervening changes adds nothing. ErrNormalizationCap is returned
// when granting has not settled after maxNormalizeIterations passes.
func (r *Resolver) NormalizeResources(c *Character) (int, error) {
	added := 0
	for i := 0; i < maxNormalizeIterations; i++ {
		var grants []rref.Ref
		for _, ref := range c.Resources() {
			res, ok := r.resolve(ref)
			if !ok {
				continue
			}
			key := ref.String() + " grants"
			if err := c.guard.enter(ResourceEval, key); err != nil {
				return added, err
			}
			g, err := ruleset.Granted(res, r.context(c, ref, res, ""))
			c.guard.exit(ResourceEval, key)
			if err != nil {
				return added, err
			}
			grants = append(grants, g...)
		}
		n := 0
		for _, g := range grants {
			if c.AddResource(g) {
				r.logger.Debug("resource granted", zap.Stringer("ref", g))
				n++
			}
		}
		added += n
		if n == 0 {
			return added, nil
		}
	}
	return added, ErrNormalizationCap
}

// Describe renders the description of the acquired resource ref.
//
// Postcondition: returns ok false when ref does not resolve.
func (r *Resolver) Describe(c *Character, ref rref.Ref) (string, bool, error) {
	res, ok := r.resolve(ref)
	if !ok {
		return "", false, nil
	}
	text, err := res.Base().Description.Evaluate(r.context(c, ref, res, ""))
	if err != nil {
		return "", true, err
	}
	return text, true, nil
}

// UnenforcedCondition is a condition the engine cannot check, to be
// adjudicated by a person.
type UnenforcedCondition struct {
	Resource rref.Ref
	// Field is "prerequisites", "requirements" or "effects".
	Field string
	condition.Unenforced
}

// Unenforced lists the unenforced conditions across the acquired resources.
func (r *Resolver) Unenforced(c *Character) []UnenforcedCondition {
	var out []UnenforcedCondition
	add := func(ref rref.Ref, field string, cs condition.Conditions) {
		for _, u := range cs.Unenforced() {
			out = append(out, UnenforcedCondition{Resource: ref, Field: field, Unenforced: u})
		}
	}
	for _, ref := range c.Resources() {
		res, ok := r.resolve(ref)
		if !ok {
			continue
		}
		base := res.Base()
		add(ref, "prerequisites", base.Prerequisites)
		add(ref, "requirements", base.Requirements)
		for _, e := range base.Effects {
			add(ref, "effects", e.When())
		}
	}
	return out
}

// ChoiceEntry is a choice declared by an acquired resource, with its answer.
type ChoiceEntry struct {
	Owner    rref.Ref
	Choice   choice.Choice
	Meta     choice.Meta
	Answer   interface{}
	Answered bool
}

// AllChoices lists the choices declared by the acquired resources, in
// acquisition then declaration order.
func (r *Resolver) AllChoices(c *Character) []ChoiceEntry {
	var out []ChoiceEntry
	for _, ref := range c.Resources() {
		res, ok := r.resolve(ref)
		if !ok {
			continue
		}
		res.Base().Choices.Each(func(ch choice.Choice, meta choice.Meta) {
			owner := ref
			if meta.From != nil {
				owner = *meta.From
			}
			e := ChoiceEntry{Owner: owner, Choice: ch, Meta: meta}
			if meta.CharacterWide {
				e.Answer, e.Answered = c.CharacterWideAnswer(ch)
			} else {
				e.Answer, e.Answered = c.Answer(owner, ch)
			}
			out = append(out, e)
		})
	}
	return out
}

// ResourcesByType returns the acquired references whose resource has type t.
func (r *Resolver) ResourcesByType(c *Character, t rref.Type) []rref.Ref {
	var out []rref.Ref
	for _, ref := range c.Resources() {
		if ref.IsTyped() {
			if ref.Type == t {
				out = append(out, ref)
			}
			continue
		}
		if res, ok := r.resolve(ref); ok && res.Type() == t {
			out = append(out, ref)
		}
	}
	return out
}
