package bonus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

func genBonus(t *rapid.T, label string) bonus.Bonus {
	return bonus.Bonus{
		Circumstance: rapid.IntRange(0, 20).Draw(t, label+".circumstance"),
		Item:         rapid.IntRange(0, 20).Draw(t, label+".item"),
		Proficiency:  rapid.IntRange(0, 20).Draw(t, label+".proficiency"),
		Status:       rapid.IntRange(0, 20).Draw(t, label+".status"),
		Untyped:      rapid.SliceOfN(rapid.IntRange(1, 20), 0, 5).Draw(t, label+".untyped"),
	}
}

func genPenalty(t *rapid.T, label string) bonus.Penalty {
	return bonus.Penalty{
		Circumstance: rapid.IntRange(-20, 0).Draw(t, label+".circumstance"),
		Item:         rapid.IntRange(-20, 0).Draw(t, label+".item"),
		Status:       rapid.IntRange(-20, 0).Draw(t, label+".status"),
		Untyped:      rapid.SliceOfN(rapid.IntRange(-20, -1), 0, 5).Draw(t, label+".untyped"),
	}
}

func genModifier(t *rapid.T, label string) bonus.Modifier {
	return bonus.Modifier{Bonus: genBonus(t, label+".bonus"), Penalty: genPenalty(t, label+".penalty")}
}

func TestProperty_Modifier_AddIsCommutative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a, b := genModifier(rt, "a"), genModifier(rt, "b")
		assert.True(rt, a.Add(b).Equal(b.Add(a)))
		assert.Equal(rt, a.Add(b).Total(), b.Add(a).Total())
	})
}

func TestProperty_Modifier_AddIsAssociative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a, b, c := genModifier(rt, "a"), genModifier(rt, "b"), genModifier(rt, "c")
		assert.True(rt, a.Add(b).Add(c).Equal(a.Add(b.Add(c))))
	})
}

func TestProperty_Bonus_TypedDoesNotStack(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(0, 30).Draw(rt, "a")
		b := rapid.IntRange(0, 30).Draw(rt, "b")
		for _, typ := range []bonus.Type{bonus.Circumstance, bonus.Item, bonus.Status} {
			got := bonus.BonusOf(typ, a).Add(bonus.BonusOf(typ, b))
			assert.Equal(rt, max(a, b), got.Total(), typ.String())
		}
	})
}

func TestProperty_Bonus_UntypedStacks(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(-30, 30).Draw(rt, "a")
		b := rapid.IntRange(-30, 30).Draw(rt, "b")
		got := bonus.FromNumber(a).Add(bonus.FromNumber(b))
		assert.True(rt, got.Equal(bonus.FromNumber(a+b)))
	})
}

func TestProperty_Modifier_ParseDisplayRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := genModifier(rt, "m")
		parsed, err := bonus.Parse(m.String())
		require.NoError(rt, err, m.String())
		assert.True(rt, parsed.Equal(m), "%s != %s", parsed, m)
	})
}

func TestProperty_Modifier_YAMLRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := genModifier(rt, "m")
		out, err := yaml.Marshal(m)
		require.NoError(rt, err)
		var got bonus.Modifier
		require.NoError(rt, yaml.Unmarshal(out, &got))
		assert.True(rt, got.Equal(m))
	})
}

func TestBonusOf_ClampsTypedAtZero(t *testing.T) {
	assert.Equal(t, 0, bonus.BonusOf(bonus.Status, -3).Total())
	assert.Equal(t, -3, bonus.BonusOf(bonus.Untyped, -3).Total())
	assert.Equal(t, 4, bonus.BonusOf(bonus.Proficiency, 4).Proficiency)
}

func TestPenaltyOf(t *testing.T) {
	p, err := bonus.PenaltyOf(bonus.Status, 2)
	require.NoError(t, err)
	assert.Equal(t, -2, p.Status)

	_, err = bonus.PenaltyOf(bonus.Proficiency, 2)
	assert.ErrorIs(t, err, bonus.ErrProficiencyPenalty)
}

func TestPenalty_TypedKeepsMostSevere(t *testing.T) {
	a, _ := bonus.PenaltyOf(bonus.Circumstance, 1)
	b, _ := bonus.PenaltyOf(bonus.Circumstance, 3)
	assert.Equal(t, -3, a.Add(b).Total())
}

func TestProficiencyBonus_Table(t *testing.T) {
	assert.Equal(t, 7, bonus.ProficiencyBonus(stats.Trained, 5).Total())
	assert.Equal(t, 28, bonus.ProficiencyBonus(stats.Legendary, 20).Total())
	assert.Equal(t, 0, bonus.ProficiencyBonus(stats.Untrained, 12).Total())
}

func TestBonus_MulLevel_SkipsProficiency(t *testing.T) {
	b := bonus.Bonus{Item: 1, Proficiency: 3, Untyped: []int{2, 1}}
	got := b.MulLevel(4)
	assert.Equal(t, 4, got.Item)
	assert.Equal(t, 3, got.Proficiency)
	assert.Equal(t, []int{8, 4}, got.Untyped)
}

func TestModifier_String(t *testing.T) {
	assert.Equal(t, "0", bonus.Modifier{}.String())
	assert.Equal(t, "2 circumstance", bonus.FromBonus(bonus.BonusOf(bonus.Circumstance, 2)).String())
	assert.Equal(t, "-1 status", bonus.FromPenalty(bonus.Penalty{Status: -1}).String())
	assert.Equal(t, "5", bonus.FromNumber(5).String())
	assert.Equal(t, "-4", bonus.FromNumber(-4).String())
	composite := bonus.FromBonus(bonus.Bonus{Item: 1, Proficiency: 3, Untyped: []int{2}})
	assert.Equal(t, "(1 item + 3 proficiency + 2)", composite.String())
}

func TestParse_Terms(t *testing.T) {
	m, err := bonus.Parse("+2 status")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Bonus.Status)

	m, err = bonus.Parse("-1 circumstance")
	require.NoError(t, err)
	assert.Equal(t, -1, m.Penalty.Circumstance)

	m, err = bonus.Parse("(2 circumstance + 1 item + 3 proficiency + 4 status + 5)")
	require.NoError(t, err)
	assert.Equal(t, 15, m.Total())

	_, err = bonus.Parse("-2 proficiency")
	assert.ErrorIs(t, err, bonus.ErrProficiencyPenalty)

	_, err = bonus.Parse("two")
	assert.Error(t, err)

	_, err = bonus.Parse("2 mystery")
	assert.Error(t, err)
}

func TestModifier_UnmarshalYAML_Shapes(t *testing.T) {
	var got struct {
		A bonus.Modifier `yaml:"a"`
		B bonus.Modifier `yaml:"b"`
		C bonus.Modifier `yaml:"c"`
	}
	doc := `
a: 3
b: "1 item"
c:
  bonus: {status: 2}
  penalty: {circumstance: 1}
`
	require.NoError(t, yaml.Unmarshal([]byte(doc), &got))
	assert.Equal(t, 3, got.A.Total())
	assert.Equal(t, 1, got.B.Bonus.Item)
	assert.Equal(t, 2, got.C.Bonus.Status)
	assert.Equal(t, -1, got.C.Penalty.Circumstance)
}
