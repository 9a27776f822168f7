package bonus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// Modifier is a bonus paired with a penalty.
type Modifier struct {
	Bonus   Bonus
	Penalty Penalty
}

// FromBonus wraps b.
func FromBonus(b Bonus) Modifier { return Modifier{Bonus: b} }

// FromPenalty wraps p.
func FromPenalty(p Penalty) Modifier { return Modifier{Penalty: p} }

// FromNumber is an untyped bonus for n >= 0 and an untyped penalty otherwise.
func FromNumber(n int) Modifier {
	if n >= 0 {
		return FromBonus(BonusOf(Untyped, n))
	}
	return FromPenalty(Penalty{Untyped: []int{n}})
}

func (m Modifier) Add(o Modifier) Modifier {
	return Modifier{Bonus: m.Bonus.Add(o.Bonus), Penalty: m.Penalty.Add(o.Penalty)}
}

// AddBonus folds b into the bonus half of m.
func (m Modifier) AddBonus(b Bonus) Modifier {
	return Modifier{Bonus: m.Bonus.Add(b), Penalty: m.Penalty}
}

// AddPenalty folds p into the penalty half of m.
func (m Modifier) AddPenalty(p Penalty) Modifier {
	return Modifier{Bonus: m.Bonus, Penalty: m.Penalty.Add(p)}
}

func (m Modifier) MulLevel(level stats.Level) Modifier {
	return Modifier{Bonus: m.Bonus.MulLevel(level), Penalty: m.Penalty.MulLevel(level)}
}

func (m Modifier) Total() int {
	return m.Bonus.Total() + m.Penalty.Total()
}

// Categories is the net value of each category after bonuses and penalties
// are summed.
type Categories struct {
	Circumstance, Item, Proficiency, Status, Untyped int
}

func (m Modifier) Categories() Categories {
	return Categories{
		Circumstance: m.Bonus.Circumstance + m.Penalty.Circumstance,
		Item:         m.Bonus.Item + m.Penalty.Item,
		Proficiency:  m.Bonus.Proficiency,
		Status:       m.Bonus.Status + m.Penalty.Status,
		Untyped:      m.Bonus.UntypedSum() + m.Penalty.UntypedSum(),
	}
}

// Equal compares net category values rather than how they were built up.
func (m Modifier) Equal(o Modifier) bool {
	return m.Categories() == o.Categories()
}

func (m Modifier) IsZero() bool {
	return m.Categories() == Categories{}
}

func (m Modifier) String() string {
	c := m.Categories()
	typed := []struct {
		v int
		t Type
	}{
		{c.Circumstance, Circumstance},
		{c.Item, Item},
		{c.Proficiency, Proficiency},
		{c.Status, Status},
	}
	var parts []string
	for _, x := range typed {
		if x.v != 0 {
			parts = append(parts, fmt.Sprintf("%d %s", x.v, x.t))
		}
	}
	if c.Untyped != 0 {
		parts = append(parts, strconv.Itoa(c.Untyped))
	}
	switch len(parts) {
	case 0:
		return "0"
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, " + ") + ")"
	}
}

var termPattern = regexp.MustCompile(`^([+-]?)(\d+)(?:\s+([A-Za-z]+))?$`)

// Parse reads the text form produced by String, plus single terms with an
// explicit sign such as "+2 status" or "-1 circumstance".
func Parse(s string) (Modifier, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		var out Modifier
		for _, term := range strings.Split(s[1:len(s)-1], " + ") {
			m, err := parseTerm(term)
			if err != nil {
				return Modifier{}, err
			}
			out = out.Add(m)
		}
		return out, nil
	}
	return parseTerm(s)
}

// MustParse is Parse for literals known to be valid.
//
// Precondition: s must parse.
func MustParse(s string) Modifier {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func parseTerm(s string) (Modifier, error) {
	match := termPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return Modifier{}, fmt.Errorf("bonus: invalid modifier %q", s)
	}
	n, err := strconv.Atoi(match[2])
	if err != nil {
		return Modifier{}, fmt.Errorf("bonus: invalid modifier %q: %w", s, err)
	}
	t, err := ParseType(match[3])
	if err != nil {
		return Modifier{}, err
	}
	if match[1] == "-" {
		p, err := PenaltyOf(t, n)
		if err != nil {
			return Modifier{}, fmt.Errorf("bonus: invalid modifier %q: %w", s, err)
		}
		return FromPenalty(p), nil
	}
	return FromBonus(BonusOf(t, n)), nil
}

// ParseBonus reads a single non-negative term.
func ParseBonus(s string) (Bonus, error) {
	m, err := parseTerm(s)
	if err != nil {
		return Bonus{}, err
	}
	if m.Penalty.Total() != 0 {
		return Bonus{}, fmt.Errorf("bonus: %q is a penalty", s)
	}
	return m.Bonus, nil
}

// ParsePenalty reads a single term and treats its magnitude as a penalty.
func ParsePenalty(s string) (Penalty, error) {
	m, err := parseTerm(strings.TrimPrefix(strings.TrimSpace(s), "+"))
	if err != nil {
		return Penalty{}, err
	}
	if !m.Penalty.Equal(Penalty{}) {
		return m.Penalty, nil
	}
	c := m.Bonus
	if c.Proficiency != 0 {
		return Penalty{}, ErrProficiencyPenalty
	}
	return Penalty{
		Circumstance: -c.Circumstance,
		Item:         -c.Item,
		Status:       -c.Status,
		Untyped:      negate(c.Untyped),
	}, nil
}

// Equal compares net slot values.
func (p Penalty) Equal(o Penalty) bool {
	return p.Circumstance == o.Circumstance && p.Item == o.Item && p.Status == o.Status &&
		p.UntypedSum() == o.UntypedSum()
}

func negate(xs []int) []int {
	if xs == nil {
		return nil
	}
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = -x
	}
	return out
}
