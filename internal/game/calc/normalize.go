package calc

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
)

// ErrNormalizationDiverged is returned when flattening an expression does not
// settle within maxNormalizeIterations passes.
var ErrNormalizationDiverged = errors.New("calc: normalization did not converge")

const maxNormalizeIterations = 20

// Normalize rewrites c so that literal siblings are merged, nested sums are
// flattened into their parent and single-term sums are unwrapped.
//
// Postcondition: Normalize(Normalize(c)) is structurally equal to Normalize(c).
func Normalize(c Calculation) (Calculation, error) {
	op, ok := c.(Op)
	if !ok {
		return c, nil
	}
	if lit, ok := collapseLiterals(op.Terms); ok {
		return lit, nil
	}

	terms := append([]Calculation(nil), op.Terms...)
	for iteration := 0; ; iteration++ {
		if iteration >= maxNormalizeIterations {
			return nil, fmt.Errorf("%w after %d passes: %s", ErrNormalizationDiverged, iteration, op)
		}
		sort.SliceStable(terms, func(i, j int) bool {
			return terms[i].sortRank() < terms[j].sortRank()
		})
		changed := false
		next := make([]Calculation, 0, len(terms))
		for _, t := range terms {
			nt, err := Normalize(t)
			if err != nil {
				return nil, err
			}
			if inner, ok := nt.(Op); ok && inner.Operator == op.Operator {
				next = append(next, inner.Terms...)
				changed = true
				continue
			}
			if lit, ok := nt.(Literal); ok && len(next) > 0 {
				if prev, ok := next[len(next)-1].(Literal); ok {
					next[len(next)-1] = Literal{Modifier: prev.Modifier.Add(lit.Modifier)}
					changed = true
					continue
				}
			}
			next = append(next, nt)
		}
		terms = next
		if !changed {
			break
		}
	}

	if lit, ok := collapseLiterals(terms); ok {
		return lit, nil
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return Op{Operator: op.Operator, Terms: terms}, nil
}

func collapseLiterals(terms []Calculation) (Literal, bool) {
	var total bonus.Modifier
	for _, t := range terms {
		lit, ok := t.(Literal)
		if !ok {
			return Literal{}, false
		}
		total = total.Add(lit.Modifier)
	}
	return Literal{Modifier: total}, true
}
