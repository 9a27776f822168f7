package choice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
)

func TestChoice_EqualIgnoresCaseAndDiacritics(t *testing.T) {
	assert.True(t, choice.Choice("Level").Equal("LEVEL"))
	assert.True(t, choice.Choice("Élan").Equal("elan"))
	assert.False(t, choice.Choice("Level").Equal("Levels"))
}

func TestProperty_Choice_FoldIgnoresCase(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.StringMatching(`[a-zA-Z][a-zA-Z_]{0,12}`).Draw(rt, "s")
		assert.True(rt, choice.Choice(s).Equal(choice.Choice(swapCase(s))))
	})
}

func swapCase(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z':
			out[i] = r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			out[i] = r - 'A' + 'a'
		}
	}
	return string(out)
}

func TestParse(t *testing.T) {
	c, err := choice.Parse("$Level")
	require.NoError(t, err)
	assert.Equal(t, choice.Choice("Level"), c)
	assert.Equal(t, "$Level", c.Token())

	_, err = choice.Parse("")
	assert.ErrorIs(t, err, choice.ErrEmpty)

	_, err = choice.Parse("Level")
	assert.ErrorIs(t, err, choice.ErrBadStart)
}

func TestSet_AddDemotesPreviousKey(t *testing.T) {
	var s choice.Set
	_, demoted := s.Add("Ability", choice.Meta{Kind: choice.Kind{Name: choice.Ability}, Key: true})
	assert.False(t, demoted)

	prev, demoted := s.Add("Skill", choice.Meta{Kind: choice.Kind{Name: choice.Skill}, Key: true})
	assert.True(t, demoted)
	assert.Equal(t, choice.Choice("Ability"), prev)

	key, ok := s.KeyChoice()
	require.True(t, ok)
	assert.Equal(t, choice.Choice("Skill"), key)

	m, ok := s.Get("ability")
	require.True(t, ok)
	assert.False(t, m.Key)
}

func TestSet_YAML(t *testing.T) {
	doc := `
$Level:
  kind: level
  key: true
$Feat:
  kind:
    resource: {type: feat, trait: Fighter}
  from: "Fighter [class]"
  description: Pick a fighter feat.
`
	var s choice.Set
	require.NoError(t, yaml.Unmarshal([]byte(doc), &s))
	assert.Equal(t, 2, s.Len())

	m, ok := s.Get("feat")
	require.True(t, ok)
	assert.Equal(t, choice.Resource, m.Kind.Name)
	assert.Equal(t, rref.Feat, m.Kind.ResourceType)
	assert.Equal(t, "Fighter", m.Kind.Trait)
	require.NotNil(t, m.From)
	assert.Equal(t, rref.Typed("Fighter", rref.Class), *m.From)

	lvl, ok := s.Get("LEVEL")
	require.True(t, ok)
	assert.Equal(t, choice.DefaultDescription, lvl.DescriptionText())

	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	var again choice.Set
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, s, again)
}
