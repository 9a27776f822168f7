package character

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// evalContext is a character seen from one acquired resource. It satisfies
// ruleset.Context and therefore calc, condition and effect contexts too.
type evalContext struct {
	r      *Resolver
	c      *Character
	ref    rref.Ref
	res    ruleset.Resource
	target string
}

var _ ruleset.Context = (*evalContext)(nil)

func (e *evalContext) Logger() *zap.Logger { return e.r.logger }

func (e *evalContext) ModifierTotal(name string) (int, error) {
	m, err := e.r.Modifier(e.c, name, e.target)
	if err != nil {
		return 0, err
	}
	return m.Total(), nil
}

// owner returns whose answer to ch the current resource reads. Choices the
// resource does not declare are read from the resource itself.
func (e *evalContext) owner(ch choice.Choice) (owner rref.Ref, characterWide, ok bool) {
	if e.res == nil {
		return rref.Ref{}, false, false
	}
	meta, declared := e.res.Base().Choices.Get(ch)
	if !declared {
		e.r.logger.Debug("reading undeclared choice",
			zap.Stringer("resource", e.ref),
			zap.String("choice", ch.String()),
		)
		return e.ref, false, true
	}
	if meta.From != nil {
		return *meta.From, meta.CharacterWide, true
	}
	return e.ref, meta.CharacterWide, true
}

// ChoiceInt reads ch as an integer, yielding 0 when it is unanswered or
// unreadable.
func (e *evalContext) ChoiceInt(ch choice.Choice) (int, error) {
	owner, wide, ok := e.owner(ch)
	if !ok {
		e.r.logger.Debug("choice read outside a resource", zap.String("choice", ch.String()))
		return 0, nil
	}
	n, found, err := e.r.ChoiceInt(e.c, owner, ch, wide)
	if err != nil {
		return 0, err
	}
	if !found {
		e.r.logger.Debug("choice unanswered",
			zap.Stringer("owner", owner),
			zap.String("choice", ch.String()),
		)
	}
	return n, nil
}

func (e *evalContext) ChoiceRef(ch choice.Choice) (rref.Ref, bool, error) {
	owner, wide, ok := e.owner(ch)
	if !ok {
		return rref.Ref{}, false, nil
	}
	return e.r.ChoiceRef(e.c, owner, ch, wide)
}

func (e *evalContext) LevelOf(owner rref.Ref) (stats.Level, error) {
	return e.r.levelOf(e.c, owner)
}

func (e *evalContext) ClassAndLevel() (rref.Ref, stats.Level, bool, error) {
	return e.r.ClassAndLevel(e.c)
}

func (e *evalContext) HasResource(ref rref.Ref) (bool, error) {
	return e.c.HasResource(ref), nil
}

// WornArmorCategory reads the item named by the character-wide WornArmor
// choice. A character wearing nothing, or something that is not a known
// item, is unarmored.
func (e *evalContext) WornArmorCategory() (stats.ArmorCategory, error) {
	ref, ok, err := e.r.ChoiceRef(e.c, rref.Ref{}, WornArmor, true)
	if err != nil || !ok {
		return stats.Unarmored, err
	}
	if !ref.IsTyped() {
		ref = ref.WithType(rref.Item)
	}
	res, found := e.r.resolve(ref)
	item, isItem := res.(*ruleset.Item)
	if !found || !isItem {
		e.r.logger.Debug("worn armor is not a known item", zap.Stringer("ref", ref))
		return stats.Unarmored, nil
	}
	return item.ArmorCategory, nil
}

func (e *evalContext) HasItemWithTraits(slot stats.ItemSlot, traits []string) (bool, error) {
	for _, ref := range e.c.Resources() {
		if ref.IsTyped() && ref.Type != rref.Item {
			continue
		}
		res, ok := e.r.store.LookupImmediate(ref)
		if !ok {
			continue
		}
		item, isItem := res.(*ruleset.Item)
		if !isItem || !slot.Matches(item.Slot) {
			continue
		}
		all := true
		for _, t := range traits {
			if !item.HasTrait(t) {
				all = false
				break
			}
		}
		if all {
			return true, nil
		}
	}
	return false, nil
}

func (e *evalContext) ProficiencyRank(target string) (stats.Proficiency, error) {
	return e.r.Proficiency(e.c, target)
}

// EvalScript runs a Lua predicate. Script failures are logged and pass;
// errors raised by the character queries the script made are returned.
func (e *evalContext) EvalScript(src string) (bool, error) {
	if e.r.scripts == nil {
		e.r.logger.Warn("script condition ignored: no script evaluator", zap.Stringer("resource", e.ref))
		return true, nil
	}
	q := &scriptQueries{ctx: e}
	ok, err := e.r.scripts.EvalPredicate(src, q)
	if q.err != nil {
		return false, q.err
	}
	if err != nil {
		e.r.logger.Warn("script condition failed",
			zap.Stringer("resource", e.ref),
			zap.Error(err),
		)
		return true, nil
	}
	return ok, nil
}

// scriptQueries answers a script's questions and remembers the first
// evaluation error so it can be propagated past the Lua boundary.
type scriptQueries struct {
	ctx *evalContext
	err error
}

func (q *scriptQueries) record(err error) error {
	if err != nil && q.err == nil {
		q.err = err
	}
	return err
}

func (q *scriptQueries) HasResource(s string) (bool, error) {
	ref, err := rref.Parse(s)
	if err != nil {
		return false, err
	}
	return q.ctx.c.HasResource(ref), nil
}

func (q *scriptQueries) ModifierTotal(name string) (int, error) {
	n, err := q.ctx.ModifierTotal(name)
	return n, q.record(err)
}

func (q *scriptQueries) ProficiencyRank(target string) (int, error) {
	rank, err := q.ctx.ProficiencyRank(target)
	return int(rank), q.record(err)
}
