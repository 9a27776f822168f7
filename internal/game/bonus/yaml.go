package bonus

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type categoryFields struct {
	Circumstance int `yaml:"circumstance,omitempty"`
	Item         int `yaml:"item,omitempty"`
	Proficiency  int `yaml:"proficiency,omitempty"`
	Status       int `yaml:"status,omitempty"`
	Untyped      int `yaml:"untyped,omitempty"`
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (b Bonus) MarshalYAML() (interface{}, error) {
	return categoryFields{
		Circumstance: b.Circumstance,
		Item:         b.Item,
		Proficiency:  b.Proficiency,
		Status:       b.Status,
		Untyped:      b.UntypedSum(),
	}, nil
}

// UnmarshalYAML accepts an integer (untyped), a term such as "2 status", or a
// map of category names to values.
func (b *Bonus) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!int" {
			var n int
			if err := node.Decode(&n); err != nil {
				return err
			}
			*b = BonusOf(Untyped, n)
			return nil
		}
		parsed, err := ParseBonus(node.Value)
		if err != nil {
			return err
		}
		*b = parsed
		return nil
	case yaml.MappingNode:
		var f categoryFields
		if err := node.Decode(&f); err != nil {
			return err
		}
		*b = Bonus{
			Circumstance: max(f.Circumstance, 0),
			Item:         max(f.Item, 0),
			Proficiency:  f.Proficiency,
			Status:       max(f.Status, 0),
		}
		if f.Untyped != 0 {
			b.Untyped = []int{f.Untyped}
		}
		return nil
	}
	return fmt.Errorf("bonus: line %d: expected a bonus, got %s", node.Line, kindName(node.Kind))
}

func (p Penalty) MarshalYAML() (interface{}, error) {
	return categoryFields{
		Circumstance: p.Circumstance,
		Item:         p.Item,
		Status:       p.Status,
		Untyped:      p.UntypedSum(),
	}, nil
}

// UnmarshalYAML accepts the same shapes as Bonus. Magnitudes may be written
// with or without a sign.
func (p *Penalty) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!int" {
			var n int
			if err := node.Decode(&n); err != nil {
				return err
			}
			*p = Penalty{Untyped: []int{-abs(n)}}
			return nil
		}
		parsed, err := ParsePenalty(node.Value)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case yaml.MappingNode:
		var f categoryFields
		if err := node.Decode(&f); err != nil {
			return err
		}
		if f.Proficiency != 0 {
			return fmt.Errorf("line %d: %w", node.Line, ErrProficiencyPenalty)
		}
		*p = Penalty{
			Circumstance: -abs(f.Circumstance),
			Item:         -abs(f.Item),
			Status:       -abs(f.Status),
		}
		if f.Untyped != 0 {
			p.Untyped = []int{-abs(f.Untyped)}
		}
		return nil
	}
	return fmt.Errorf("bonus: line %d: expected a penalty, got %s", node.Line, kindName(node.Kind))
}

func (m Modifier) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML accepts an integer, the text form, or a map with bonus and
// penalty keys.
func (m *Modifier) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!int" {
			var n int
			if err := node.Decode(&n); err != nil {
				return err
			}
			*m = FromNumber(n)
			return nil
		}
		parsed, err := Parse(node.Value)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case yaml.MappingNode:
		var f struct {
			Bonus   Bonus   `yaml:"bonus"`
			Penalty Penalty `yaml:"penalty"`
		}
		if err := node.Decode(&f); err != nil {
			return err
		}
		*m = Modifier{Bonus: f.Bonus, Penalty: f.Penalty}
		return nil
	}
	return fmt.Errorf("bonus: line %d: expected a modifier, got %s", node.Line, kindName(node.Kind))
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "a scalar"
	}
}

func (t Type) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *Type) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseType(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = parsed
	return nil
}
