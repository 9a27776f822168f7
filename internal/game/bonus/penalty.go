package bonus

import (
	"errors"
	"strconv"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// ErrProficiencyPenalty is returned when a penalty is requested in the
// proficiency category, which has no penalties.
var ErrProficiencyPenalty = errors.New("bonus: proficiency penalties do not exist")

// Penalty mirrors Bonus without a proficiency slot. All values are stored as
// non-positive integers.
type Penalty struct {
	Circumstance int
	Item         int
	Status       int
	Untyped      []int
}

// PenaltyOf builds a single-category penalty of magnitude |v|.
//
// Precondition: t must not be Proficiency.
func PenaltyOf(t Type, v int) (Penalty, error) {
	if v > 0 {
		v = -v
	}
	switch t {
	case Circumstance:
		return Penalty{Circumstance: v}, nil
	case Item:
		return Penalty{Item: v}, nil
	case Status:
		return Penalty{Status: v}, nil
	case Proficiency:
		return Penalty{}, ErrProficiencyPenalty
	default:
		return Penalty{Untyped: []int{v}}, nil
	}
}

// Add combines two penalties: typed slots keep the most severe value,
// untyped contributions accumulate.
func (p Penalty) Add(o Penalty) Penalty {
	out := Penalty{
		Circumstance: min(p.Circumstance, o.Circumstance),
		Item:         min(p.Item, o.Item),
		Status:       min(p.Status, o.Status),
	}
	if len(p.Untyped)+len(o.Untyped) > 0 {
		out.Untyped = make([]int, 0, len(p.Untyped)+len(o.Untyped))
		out.Untyped = append(append(out.Untyped, p.Untyped...), o.Untyped...)
	}
	return out
}

// MulLevel scales every slot by level.
func (p Penalty) MulLevel(level stats.Level) Penalty {
	l := int(level)
	out := Penalty{
		Circumstance: p.Circumstance * l,
		Item:         p.Item * l,
		Status:       p.Status * l,
	}
	for _, u := range p.Untyped {
		out.Untyped = append(out.Untyped, u*l)
	}
	return out
}

func (p Penalty) UntypedSum() int {
	return sum(p.Untyped)
}

func (p Penalty) Total() int {
	return p.Circumstance + p.Item + p.Status + p.UntypedSum()
}

func (p Penalty) String() string {
	return strconv.Itoa(p.Total())
}
