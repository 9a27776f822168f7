// Package stats defines the small enumerations shared by every layer of the
// resolution engine: proficiency ranks, character level, ability names,
// armor categories and item slots.
package stats

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Proficiency is a training rank, ordered from Untrained to Legendary.
type Proficiency int

const (
	Untrained Proficiency = iota
	Trained
	Expert
	Master
	Legendary
)

// Proficiencies lists every rank in ascending order.
var Proficiencies = []Proficiency{Untrained, Trained, Expert, Master, Legendary}

var proficiencyNames = map[Proficiency]string{
	Untrained: "Untrained",
	Trained:   "Trained",
	Expert:    "Expert",
	Master:    "Master",
	Legendary: "Legendary",
}

func (p Proficiency) String() string {
	if s, ok := proficiencyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Proficiency(%d)", int(p))
}

// Bonus returns the proficiency bonus this rank grants at level.
//
// Postcondition: Untrained always yields 0; every other rank yields level + 2*rank.
func (p Proficiency) Bonus(level Level) int {
	switch p {
	case Trained:
		return int(level) + 2
	case Expert:
		return int(level) + 4
	case Master:
		return int(level) + 6
	case Legendary:
		return int(level) + 8
	default:
		return 0
	}
}

// ParseProficiency accepts a full rank name or its single-letter abbreviation,
// in any case.
func ParseProficiency(s string) (Proficiency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "u", "untrained":
		return Untrained, nil
	case "t", "trained":
		return Trained, nil
	case "e", "expert":
		return Expert, nil
	case "m", "master":
		return Master, nil
	case "l", "legendary":
		return Legendary, nil
	}
	return Untrained, fmt.Errorf("stats: unknown proficiency %q", s)
}

func (p Proficiency) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

func (p *Proficiency) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseProficiency(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Level is a character or resource level. Levels start at 1.
type Level int

// MinLevel is the level assumed when none has been chosen.
const MinLevel Level = 1
