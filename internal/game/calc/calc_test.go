package calc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/calc"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
)

type fakeContext struct {
	modifiers map[string]int
	choices   map[string]int
}

func (f fakeContext) ModifierTotal(name string) (int, error) {
	return f.modifiers[name], nil
}

func (f fakeContext) ChoiceInt(c choice.Choice) (int, error) {
	return f.choices[c.Key()], nil
}

var ctx = fakeContext{
	modifiers: map[string]int{"STR bonus": 3, "Max HP": 20, "DEX": 14},
	choices:   map[string]int{"level": 5},
}

func genCalculation(t *rapid.T, depth int) calc.Calculation {
	leaf := rapid.OneOf(
		rapid.Custom(func(t *rapid.T) calc.Calculation {
			return calc.Named(rapid.SampledFrom([]string{"STR bonus", "Max HP", "DEX", "AC"}).Draw(t, "named"))
		}),
		rapid.Custom(func(t *rapid.T) calc.Calculation {
			return calc.Choice{Key: choice.Choice(rapid.SampledFrom([]string{"Level", "Rank"}).Draw(t, "choice"))}
		}),
		rapid.Custom(func(t *rapid.T) calc.Calculation {
			return calc.FromNumber(rapid.IntRange(-10, 10).Draw(t, "n"))
		}),
	)
	if depth <= 0 || !rapid.Bool().Draw(t, "nest") {
		return leaf.Draw(t, "leaf")
	}
	n := rapid.IntRange(0, 4).Draw(t, "terms")
	terms := make([]calc.Calculation, n)
	for i := range terms {
		terms[i] = genCalculation(t, depth-1)
	}
	return calc.Sum(terms...)
}

func TestProperty_Normalize_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := genCalculation(rt, 3)
		once, err := calc.Normalize(c)
		require.NoError(rt, err)
		twice, err := calc.Normalize(once)
		require.NoError(rt, err)
		assert.Equal(rt, once.String(), twice.String())
	})
}

func TestProperty_Normalize_PreservesUntypedEvaluation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := genCalculation(rt, 3)
		want, err := c.Evaluate(ctx)
		require.NoError(rt, err)
		n, err := calc.Normalize(c)
		require.NoError(rt, err)
		got, err := n.Evaluate(ctx)
		require.NoError(rt, err)
		assert.Equal(rt, want, got)
	})
}

func TestProperty_Calculation_ParseDisplayRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c, err := calc.Normalize(genCalculation(rt, 3))
		require.NoError(rt, err)
		parsed, err := calc.Parse(c.String())
		require.NoError(rt, err, c.String())
		assert.Equal(rt, c.String(), parsed.String())

		want, _ := c.Evaluate(ctx)
		got, _ := parsed.Evaluate(ctx)
		assert.Equal(rt, want, got)
	})
}

func TestParse_Expressions(t *testing.T) {
	c, err := calc.Parse("STR bonus + $Level + 2")
	require.NoError(t, err)
	v, err := c.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	c, err = calc.Parse("(1 + 2) + (3 + Max HP)")
	require.NoError(t, err)
	assert.Equal(t, "6 + Max HP", c.String())

	c, err = calc.Parse("+2 status + 1 status")
	require.NoError(t, err)
	assert.Equal(t, "2 status", c.String())

	c, err = calc.Parse("(2 circumstance + 1 item + 5)")
	require.NoError(t, err)
	lit, ok := c.(calc.Literal)
	require.True(t, ok)
	assert.True(t, lit.Modifier.Equal(bonus.MustParse("(2 circumstance + 1 item + 5)")))
}

func TestParse_AccentedNames(t *testing.T) {
	for _, c := range []calc.Calculation{
		calc.Choice{Key: "Déité"},
		calc.Named("Bonus de Vigueur"),
		calc.Sum(calc.Named("Força"), calc.Choice{Key: "Niveau"}),
	} {
		parsed, err := calc.Parse(c.String())
		require.NoError(t, err, c.String())
		assert.Equal(t, c.String(), parsed.String())
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "1 +", "(1 + 2", "$", "STR bonus ) 2", "-1 proficiency"} {
		_, err := calc.Parse(in)
		assert.Error(t, err, in)
	}
}

func TestOp_EmptyEvaluatesToZero(t *testing.T) {
	v, err := calc.Sum().Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	n, err := calc.Normalize(calc.Sum())
	require.NoError(t, err)
	assert.Equal(t, "0", n.String())
}

type failingContext struct{ fakeContext }

var errBoom = errors.New("boom")

func (failingContext) ModifierTotal(string) (int, error) { return 0, errBoom }

func TestOp_PropagatesErrors(t *testing.T) {
	_, err := calc.MustParse("1 + STR bonus").Evaluate(failingContext{ctx})
	assert.ErrorIs(t, err, errBoom)
}

func TestCalculatedString_Evaluate(t *testing.T) {
	cs, err := calc.ParseCalculatedString("You gain a +[[ 1 + 2 ]] item bonus")
	require.NoError(t, err)
	got, err := cs.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "You gain a +3 item bonus", got)
	assert.Equal(t, "You gain a +[[ 3 ]] item bonus", cs.String())
}

func TestCalculatedString_Unterminated(t *testing.T) {
	_, err := calc.ParseCalculatedString("broken [[ 1 + 2")
	assert.Error(t, err)
}

func TestCalculatedString_Concat(t *testing.T) {
	a, err := calc.ParseCalculatedString("Deal [[ STR bonus ]]")
	require.NoError(t, err)
	b, err := calc.ParseCalculatedString("[[ 2 ]] damage")
	require.NoError(t, err)

	joined, err := a.Concat(b)
	require.NoError(t, err)
	require.Len(t, joined.Parts, 3)
	assert.Equal(t, "Deal [[ 2 + STR bonus ]] damage", joined.String())

	lit, err := calc.ParseCalculatedString(" extra.")
	require.NoError(t, err)
	joined, err = joined.Concat(lit)
	require.NoError(t, err)
	assert.Equal(t, " damage extra.", joined.Parts[2].Text)
}

func TestExpr_YAML(t *testing.T) {
	var doc struct {
		HP  calc.Expr `yaml:"hp"`
		Mod calc.Expr `yaml:"mod"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("hp: 8\nmod: CON bonus + 2\n"), &doc))
	v, err := doc.HP.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, v)
	assert.Equal(t, "2 + CON bonus", doc.Mod.String())
}
