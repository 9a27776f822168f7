package ruleset_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/calc"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/condition"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/effect"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

type fakeContext struct {
	armor   stats.ArmorCategory
	answers map[choice.Choice]rref.Ref
	class   *rref.Ref
	level   stats.Level
	err     error
}

func (fakeContext) ModifierTotal(string) (int, error) { return 0, nil }

func (fakeContext) ChoiceInt(choice.Choice) (int, error) { return 0, nil }

func (fakeContext) HasResource(rref.Ref) (bool, error) { return false, nil }

func (f fakeContext) WornArmorCategory() (stats.ArmorCategory, error) { return f.armor, nil }

func (fakeContext) HasItemWithTraits(stats.ItemSlot, []string) (bool, error) { return false, nil }

func (fakeContext) ProficiencyRank(string) (stats.Proficiency, error) { return stats.Untrained, nil }

func (fakeContext) EvalScript(string) (bool, error) { return true, nil }

func (f fakeContext) ChoiceRef(c choice.Choice) (rref.Ref, bool, error) {
	r, ok := f.answers[c]
	return r, ok, nil
}

func (f fakeContext) LevelOf(rref.Ref) (stats.Level, error) {
	if f.level == 0 {
		return stats.MinLevel, nil
	}
	return f.level, nil
}

func (f fakeContext) ClassAndLevel() (rref.Ref, stats.Level, bool, error) {
	if f.err != nil {
		return rref.Ref{}, 0, false, f.err
	}
	if f.class == nil {
		return rref.Ref{}, 0, false, nil
	}
	l, _ := f.LevelOf(*f.class)
	return *f.class, l, true, nil
}

func (fakeContext) Logger() *zap.Logger { return zap.NewNop() }

func unarmored() condition.Conditions {
	return condition.Of(condition.ArmorCategory{Category: stats.Unarmored})
}

func TestModifier_SumsPassingEffects(t *testing.T) {
	f := feat("Mountain Stance")
	f.AddEffect(effect.AddBonus{
		Common: effect.Common{Conditions: unarmored()},
		Type:   bonus.Item, To: "AC", Value: calc.NewExpr(calc.FromNumber(4)),
	})
	f.AddEffect(effect.AddPenalty{Type: bonus.Status, To: "AC", Value: calc.NewExpr(calc.FromNumber(1))})

	m, err := ruleset.Modifier(f, "AC", fakeContext{armor: stats.Unarmored})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Total())

	m, err = ruleset.Modifier(f, "AC", fakeContext{armor: stats.HeavyArmor})
	require.NoError(t, err)
	assert.Equal(t, -1, m.Total())
}

func TestModifier_RequirementsGateEverything(t *testing.T) {
	f := feat("Mountain Stance")
	f.AddRequirement(condition.ArmorCategory{Category: stats.Unarmored})
	f.AddEffect(effect.AddBonus{Type: bonus.Item, To: "AC", Value: calc.NewExpr(calc.FromNumber(4))})

	m, err := ruleset.Modifier(f, "AC", fakeContext{armor: stats.LightArmor})
	require.NoError(t, err)
	assert.True(t, m.IsZero())
}

func TestModifier_ClassMaxHP(t *testing.T) {
	cls := &ruleset.Class{Common: ruleset.Common{Name: "Fighter"}, HPPerLevel: calc.NewExpr(calc.FromNumber(8))}
	fighter := rref.Typed("Fighter", rref.Class)

	m, err := ruleset.Modifier(cls, ruleset.MaxHP, fakeContext{class: &fighter, level: 3})
	require.NoError(t, err)
	assert.Equal(t, 24, m.Total())

	m, err = ruleset.Modifier(cls, ruleset.MaxHP, fakeContext{class: &fighter})
	require.NoError(t, err)
	assert.Equal(t, 8, m.Total(), "level defaults to 1")

	cls.HPPerLevel = calc.NewExpr(calc.FromNumber(-3))
	m, err = ruleset.Modifier(cls, ruleset.MaxHP, fakeContext{class: &fighter, level: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Total(), "hit points per level are at least 1")
}

func TestModifier_ClassMaxHPNeedsMatchingClass(t *testing.T) {
	cls := &ruleset.Class{Common: ruleset.Common{Name: "Fighter"}, HPPerLevel: calc.NewExpr(calc.FromNumber(8))}
	wizard := rref.Typed("Wizard", rref.Class)

	m, err := ruleset.Modifier(cls, ruleset.MaxHP, fakeContext{class: &wizard, level: 3})
	require.NoError(t, err)
	assert.True(t, m.IsZero())

	m, err = ruleset.Modifier(cls, ruleset.MaxHP, fakeContext{level: 3})
	require.NoError(t, err)
	assert.True(t, m.IsZero(), "no class acquired")

	classErr := errors.New("two classes")
	_, err = ruleset.Modifier(cls, ruleset.MaxHP, fakeContext{err: classErr})
	assert.ErrorIs(t, err, classErr)
}

func TestGranted(t *testing.T) {
	bg := &ruleset.Background{Common: ruleset.Common{Name: "Acolyte"}}
	bg.AddEffect(effect.GrantSpecificResource{Resource: rref.Typed("Student of the Canon", rref.Feat)})
	bg.AddEffect(effect.GrantSpecificResource{
		Common:   effect.Common{Conditions: condition.Of(condition.ArmorCategory{Category: stats.HeavyArmor})},
		Resource: rref.Typed("Armor Proficiency", rref.Feat),
	})
	bg.AddEffect(effect.GrantResourceChoice{Choice: "Skill Feat", Type: rref.Feat})

	got, err := ruleset.Granted(bg, fakeContext{})
	require.NoError(t, err)
	assert.Equal(t, []rref.Ref{rref.Typed("Student of the Canon", rref.Feat)}, got)

	got, err = ruleset.Granted(bg, fakeContext{answers: map[choice.Choice]rref.Ref{"Skill Feat": rref.New("Assurance")}})
	require.NoError(t, err)
	assert.Equal(t, []rref.Ref{
		rref.Typed("Student of the Canon", rref.Feat),
		rref.Typed("Assurance", rref.Feat),
	}, got)
}

func TestGranted_ClassAdvancement(t *testing.T) {
	cls := &ruleset.Class{
		Common: ruleset.Common{Name: "Fighter"},
		Advancement: map[stats.Level][]rref.Ref{
			1: {rref.New("Attack of Opportunity"), rref.New("Shield Block")},
			3: {rref.New("Bravery")},
			5: {rref.New("Fighter Weapon Mastery")},
		},
	}
	fighter := rref.Typed("Fighter", rref.Class)

	got, err := ruleset.Granted(cls, fakeContext{class: &fighter, level: 3})
	require.NoError(t, err)
	assert.Equal(t, []rref.Ref{
		rref.Typed("Attack of Opportunity", rref.ClassFeature),
		rref.Typed("Shield Block", rref.ClassFeature),
		rref.Typed("Bravery", rref.ClassFeature),
	}, got)

	wizard := rref.Typed("Wizard", rref.Class)
	got, err = ruleset.Granted(cls, fakeContext{class: &wizard, level: 20})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ruleset.Granted(cls, fakeContext{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseActionType(t *testing.T) {
	for in, want := range map[string]ruleset.ActionType{
		"free":        ruleset.FreeAction,
		"reaction":    ruleset.Reaction,
		"1":           ruleset.OneAction,
		"two actions": ruleset.TwoActions,
		"Three":       ruleset.ThreeActions,
	} {
		got, err := ruleset.ParseActionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ruleset.ParseActionType("four")
	assert.Error(t, err)
}

func TestCommon_AddTraitsDeduplicates(t *testing.T) {
	var c ruleset.Common
	c.AddTraits("Fighter", "general", "fighter")
	assert.Equal(t, []string{"Fighter", "general"}, c.Traits)
}
