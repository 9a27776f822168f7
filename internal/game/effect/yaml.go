package effect

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/calc"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/condition"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// List is an ordered list of effects. Each element is written as a
// single-key mapping naming the effect kind.
type List []Effect

func (l List) MarshalYAML() (interface{}, error) {
	out := make([]map[string]interface{}, 0, len(l))
	for _, e := range l {
		key, body, err := encode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]interface{}{key: body})
	}
	return out, nil
}

func encode(e Effect) (string, interface{}, error) {
	switch v := e.(type) {
	case AddBonus:
		return "bonus", v, nil
	case AddPenalty:
		return "penalty", v, nil
	case AddFocusPoolPoint:
		return "focus pool", v, nil
	case AddSingleFocusPoolPoint:
		return "gain focus pool", v, nil
	case GrantResourceChoice:
		return "choose resource", v, nil
	case GrantSpecificResource:
		if v.Conditions.IsNone() {
			return "grant resource", v.Resource, nil
		}
		return "grant resource", v, nil
	case IncreaseProficiency:
		return "proficiency", v, nil
	case SkillIncrease:
		return "skill increase", v, nil
	}
	return "", nil, fmt.Errorf("effect: cannot encode %T", e)
}

func (l *List) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("effect: line %d: effects must be a sequence", node.Line)
	}
	out := make(List, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return fmt.Errorf("effect: line %d: each effect must be a single-key mapping", item.Line)
		}
		e, err := Decode(item.Content[0].Value, item.Content[1])
		if err != nil {
			return fmt.Errorf("effect: line %d: %w", item.Line, err)
		}
		out = append(out, e)
	}
	*l = out
	return nil
}

// Decode builds the effect named kind from its YAML body.
func Decode(kind string, body *yaml.Node) (Effect, error) {
	switch kind {
	case "bonus":
		var e AddBonus
		if err := body.Decode(&e); err != nil {
			return nil, err
		}
		if !e.Value.IsSet() {
			return nil, fmt.Errorf("bonus to %q has no value", e.To)
		}
		return e, nil
	case "penalty":
		var e AddPenalty
		if err := body.Decode(&e); err != nil {
			return nil, err
		}
		if e.Type == bonus.Proficiency {
			return nil, bonus.ErrProficiencyPenalty
		}
		if !e.Value.IsSet() {
			return nil, fmt.Errorf("penalty to %q has no value", e.To)
		}
		return e, nil
	case "focus pool":
		var e AddFocusPoolPoint
		if err := decodeOptional(body, &e); err != nil {
			return nil, err
		}
		if !e.Points.IsSet() {
			e.Points = calc.NewExpr(calc.FromNumber(1))
		}
		return e, nil
	case "gain focus pool":
		var e AddSingleFocusPoolPoint
		if err := decodeOptional(body, &e); err != nil {
			return nil, err
		}
		return e, nil
	case "choose resource":
		var e GrantResourceChoice
		if err := body.Decode(&e); err != nil {
			return nil, err
		}
		return e, nil
	case "grant resource":
		if body.Kind == yaml.ScalarNode {
			var r rref.Ref
			if err := body.Decode(&r); err != nil {
				return nil, err
			}
			return GrantSpecificResource{Resource: r}, nil
		}
		var e GrantSpecificResource
		if err := body.Decode(&e); err != nil {
			return nil, err
		}
		return e, nil
	case "proficiency", "add proficiency", "gain proficiency", "gain proficiency in":
		var f struct {
			Conditions  condition.Conditions `yaml:"conditions"`
			In          string               `yaml:"in"`
			Level       *stats.Proficiency   `yaml:"level"`
			IncreasesTo *stats.Proficiency   `yaml:"increases to"`
		}
		if err := body.Decode(&f); err != nil {
			return nil, err
		}
		e := IncreaseProficiency{Common: Common{Conditions: f.Conditions}, In: f.In}
		switch {
		case f.Level != nil:
			e.Rank = *f.Level
		case f.IncreasesTo != nil:
			e.Rank = *f.IncreasesTo
		default:
			return nil, fmt.Errorf("proficiency in %q has no level", f.In)
		}
		return e, nil
	case "skill increase":
		var e SkillIncrease
		if err := decodeOptional(body, &e); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown effect %q", kind)
}

// decodeOptional decodes body into out unless body is an empty scalar.
func decodeOptional(body *yaml.Node, out interface{}) error {
	if body.Kind == yaml.ScalarNode && (body.Tag == "!!null" || body.Value == "") {
		return nil
	}
	return body.Decode(out)
}
