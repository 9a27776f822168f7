package condition

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

type itemTraitFields struct {
	ItemSlots  stats.ItemSlot `yaml:"item_slots,omitempty"`
	ItemTraits []string       `yaml:"item_traits,omitempty"`
}

type proficiencyFields struct {
	In      string             `yaml:"in"`
	AtLeast *stats.Proficiency `yaml:"at least,omitempty"`
	Exactly *stats.Proficiency `yaml:"exactly,omitempty"`
}

// Encode converts c to its YAML mapping form.
func Encode(c Condition) (interface{}, error) {
	switch v := c.(type) {
	case nil, None:
		return map[string]interface{}{}, nil
	case Conditions:
		return Encode(v.Condition)
	case Not:
		inner, err := Encode(v.Condition)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"NOT": inner}, nil
	case Or:
		list, err := encodeList(v)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"OR": list}, nil
	case And:
		list, err := encodeList(v)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"AND": list}, nil
	case ArmorCategory:
		return map[string]interface{}{"armor category": v.Category}, nil
	case HaveResource:
		return map[string]interface{}{"have resource": v.Ref}, nil
	case ItemTrait:
		f := itemTraitFields{ItemTraits: v.Traits}
		if v.Slot != stats.AnySlot {
			f.ItemSlots = v.Slot
		}
		return map[string]interface{}{"item trait": f}, nil
	case Proficiency:
		rank := v.Rank
		f := proficiencyFields{In: v.Target}
		if v.Exactly {
			f.Exactly = &rank
		} else {
			f.AtLeast = &rank
		}
		return map[string]interface{}{"proficiency": f}, nil
	case Unenforced:
		if v.Known {
			return map[string]interface{}{"unenforced": v.Text}, nil
		}
		return map[string]interface{}{"unenforced (unknown)": v.Text}, nil
	case Script:
		return map[string]interface{}{"script": v.Source}, nil
	}
	return nil, fmt.Errorf("condition: cannot encode %T", c)
}

func encodeList(cs []Condition) ([]interface{}, error) {
	out := make([]interface{}, 0, len(cs))
	for _, c := range cs {
		e, err := Encode(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Decode reads a condition from YAML.
//
// A mapping may hold several keys; their conditions are joined with And.
// A sequence joins its elements the same way, and a plain string is read as
// a prerequisite sentence. Unknown keys are skipped with a warning.
func Decode(node *yaml.Node) (Condition, error) {
	switch node.Kind {
	case 0:
		return None{}, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return None{}, nil
		}
		return ParsePrerequisites(node.Value), nil
	case yaml.SequenceNode:
		var out Condition = None{}
		for _, child := range node.Content {
			c, err := Decode(child)
			if err != nil {
				return nil, err
			}
			out = Join(out, c)
		}
		return out, nil
	case yaml.AliasNode:
		return Decode(node.Alias)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("condition: line %d: unexpected node", node.Line)
	}

	var out Condition = None{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		c, err := decodeKey(key, value)
		if err != nil {
			return nil, fmt.Errorf("condition: line %d: %q: %w", value.Line, key, err)
		}
		if c == nil {
			zap.L().Warn("skipping unknown condition key",
				zap.String("key", key),
				zap.Int("line", node.Content[i].Line),
			)
			continue
		}
		out = Join(out, c)
	}
	return out, nil
}

func decodeKey(key string, value *yaml.Node) (Condition, error) {
	switch key {
	case "NOT":
		inner, err := Decode(value)
		if err != nil {
			return nil, err
		}
		return Not{Condition: inner}, nil
	case "OR", "AND":
		if value.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("expected a sequence")
		}
		list := make([]Condition, 0, len(value.Content))
		for _, child := range value.Content {
			c, err := Decode(child)
			if err != nil {
				return nil, err
			}
			list = append(list, c)
		}
		if len(list) == 0 {
			return None{}, nil
		}
		if key == "OR" {
			return Or(list), nil
		}
		return And(list), nil
	case "armor category":
		var ac stats.ArmorCategory
		if err := value.Decode(&ac); err != nil {
			return nil, err
		}
		return ArmorCategory{Category: ac}, nil
	case "have resource", "have class", "have feat", "have item", "have spell":
		var r rref.Ref
		if err := value.Decode(&r); err != nil {
			return nil, err
		}
		return HaveResource{Ref: r}, nil
	case "item trait":
		var f itemTraitFields
		if err := value.Decode(&f); err != nil {
			return nil, err
		}
		if f.ItemSlots == "" {
			f.ItemSlots = stats.AnySlot
		}
		return ItemTrait{Slot: f.ItemSlots, Traits: f.ItemTraits}, nil
	case "proficiency":
		var f proficiencyFields
		if err := value.Decode(&f); err != nil {
			return nil, err
		}
		switch {
		case f.Exactly != nil:
			return Proficiency{Target: f.In, Rank: *f.Exactly, Exactly: true}, nil
		case f.AtLeast != nil:
			return Proficiency{Target: f.In, Rank: *f.AtLeast}, nil
		}
		return nil, fmt.Errorf(`proficiency condition needs "at least" or "exactly"`)
	case "unenforced (unknown)", "unenforced":
		var text string
		if err := value.Decode(&text); err != nil {
			return nil, err
		}
		return Unenforced{Text: text, Known: key == "unenforced"}, nil
	case "script":
		var src string
		if err := value.Decode(&src); err != nil {
			return nil, err
		}
		return Script{Source: src}, nil
	}
	return nil, nil
}

func (c Conditions) MarshalYAML() (interface{}, error) {
	return Encode(c.Condition)
}

func (c *Conditions) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := Decode(node)
	if err != nil {
		return err
	}
	c.Condition = decoded
	return nil
}
