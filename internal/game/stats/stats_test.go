package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

func TestProficiency_Bonus_Table(t *testing.T) {
	assert.Equal(t, 7, stats.Trained.Bonus(5))
	assert.Equal(t, 28, stats.Legendary.Bonus(20))
	assert.Equal(t, 5, stats.Expert.Bonus(1))
	assert.Equal(t, 16, stats.Master.Bonus(10))
}

func TestProperty_Proficiency_UntrainedIsAlwaysZero(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := stats.Level(rapid.IntRange(1, 20).Draw(rt, "level"))
		assert.Equal(rt, 0, stats.Untrained.Bonus(level))
	})
}

func TestProperty_Proficiency_BonusIsMonotonicInRank(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := stats.Level(rapid.IntRange(1, 20).Draw(rt, "level"))
		for i := 1; i < len(stats.Proficiencies); i++ {
			assert.Less(rt, stats.Proficiencies[i-1].Bonus(level), stats.Proficiencies[i].Bonus(level))
		}
	})
}

func TestParseProficiency_AcceptsAbbreviations(t *testing.T) {
	for in, want := range map[string]stats.Proficiency{
		"u": stats.Untrained, "T": stats.Trained, "expert": stats.Expert,
		"Master": stats.Master, " legendary ": stats.Legendary,
	} {
		got, err := stats.ParseProficiency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := stats.ParseProficiency("grandmaster")
	assert.Error(t, err)
}

func TestParseArmorCategory(t *testing.T) {
	for in, want := range map[string]stats.ArmorCategory{
		"unarmored": stats.Unarmored, "light armor": stats.LightArmor,
		"Medium": stats.MediumArmor, "heavy armor": stats.HeavyArmor,
	} {
		got, err := stats.ParseArmorCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := stats.ParseArmorCategory("chain")
	assert.Error(t, err)
}

func TestArmorCategory_YAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(stats.MediumArmor)
	require.NoError(t, err)
	var got stats.ArmorCategory
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, stats.MediumArmor, got)
}

func TestParseAbility(t *testing.T) {
	got, err := stats.ParseAbility("Dexterity")
	require.NoError(t, err)
	assert.Equal(t, stats.DEX, got)
	_, err = stats.ParseAbility("luck")
	assert.Error(t, err)
}

func TestItemSlot_Matches(t *testing.T) {
	assert.True(t, stats.AnySlot.Matches(stats.WeaponSlot))
	assert.True(t, stats.ArmorSlot.Matches(stats.ArmorSlot))
	assert.False(t, stats.ShieldSlot.Matches(stats.ArmorSlot))
}
