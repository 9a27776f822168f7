package character_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/character"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
)

const valerosYAML = `
id: 2f1c1a52-8a52-4c4b-9a3e-0c1f5d7a9b11
name: Valeros
player: Sam
resources:
  - Human [ancestry]
  - Fighter [class]
choices:
  Fighter [class]:
    $Level: 3
  Fighter Feat:
    $Feat: Power Attack
character_wide:
  $Worn Armor: Full Plate
`

func TestDecode(t *testing.T) {
	c, err := character.Decode(strings.NewReader(valerosYAML))
	require.NoError(t, err)

	assert.Equal(t, "2f1c1a52-8a52-4c4b-9a3e-0c1f5d7a9b11", c.ID.String())
	assert.Equal(t, "Valeros", c.Name)
	assert.Equal(t, "Sam", c.Player)
	assert.Equal(t, []rref.Ref{
		rref.Typed("Human", rref.Ancestry),
		rref.Typed("Fighter", rref.Class),
	}, c.Resources())

	v, ok := c.Answer(rref.New("Fighter"), character.LevelChoice)
	require.True(t, ok)
	assert.Equal(t, 3, v)
	v, ok = c.Answer(rref.Typed("Fighter Feat", rref.ClassFeature), "feat")
	require.True(t, ok)
	assert.Equal(t, "Power Attack", v)
	v, ok = c.CharacterWideAnswer(character.WornArmor)
	require.True(t, ok)
	assert.Equal(t, "Full Plate", v)
}

func TestDecode_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"unnamed":         "player: Sam\n",
		"unknown field":   "name: A\nhit_points: 3\n",
		"bad id":          "name: A\nid: not-a-uuid\n",
		"bad reference":   "name: A\nresources: ['Fighter [nonsense]']\n",
		"bad choice":      "name: A\nchoices:\n  Fighter:\n    Level: 3\n",
		"bad wide choice": "name: A\ncharacter_wide:\n  Worn Armor: x\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := character.Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestDecode_MissingIDIsGenerated(t *testing.T) {
	a, err := character.Decode(strings.NewReader("name: A\n"))
	require.NoError(t, err)
	b, err := character.Decode(strings.NewReader("name: A\n"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEncode_RoundTrip(t *testing.T) {
	c := character.New("Kyra", "Jo")
	c.AddResource(rref.Typed("Cleric", rref.Class))
	c.SetChoice(rref.Typed("Cleric", rref.Class), character.LevelChoice, 5)
	c.SetCharacterWideChoice(character.WornArmor, rref.Typed("Leather Armor", rref.Item))

	var buf bytes.Buffer
	require.NoError(t, character.Encode(&buf, c))
	got, err := character.Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.Player, got.Player)
	assert.Equal(t, c.Resources(), got.Resources())
	v, ok := got.Answer(rref.New("Cleric"), character.LevelChoice)
	require.True(t, ok)
	assert.Equal(t, 5, v)
	v, ok = got.CharacterWideAnswer(character.WornArmor)
	require.True(t, ok)
	assert.Equal(t, "Leather Armor [item]", v)
}

func TestSaveAndLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	a := character.New("Kyra", "")
	b := character.New("Valeros", "")
	require.NoError(t, character.SaveFile(filepath.Join(dir, "kyra.yaml"), a))
	require.NoError(t, character.SaveFile(filepath.Join(dir, "valeros.yml"), b))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	got, err := character.LoadDirectory(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].ID.String() < got[1].ID.String())

	require.NoError(t, character.SaveFile(filepath.Join(dir, "copy.yaml"), a))
	_, err = character.LoadDirectory(dir)
	assert.Error(t, err, "duplicate ids are rejected")
}

func TestLoadDirectory_ShippedCharacters(t *testing.T) {
	got, err := character.LoadDirectory("../../../content/characters")
	require.NoError(t, err)
	require.NotEmpty(t, got)
}
