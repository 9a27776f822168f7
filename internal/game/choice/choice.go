// Package choice models the decisions a player makes while building a
// character: which ability to boost, which feat to take, what level to be.
package choice

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
)

var (
	// ErrEmpty is returned when parsing an empty choice token.
	ErrEmpty = errors.New("choice: key must not be empty")
	// ErrBadStart is returned when a choice token does not begin with "$".
	ErrBadStart = errors.New(`choice: key must start with "$"`)
)

// Choice names a decision slot. Two choices are the same slot when their
// names match ignoring case and diacritics.
type Choice string

// Fold returns the comparison key for s: case folded with combining marks
// removed.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// Key is the folded form used for map lookups.
func (c Choice) Key() string {
	return Fold(string(c))
}

// Equal compares two choices ignoring case and diacritics.
func (c Choice) Equal(o Choice) bool {
	return c.Key() == o.Key()
}

func (c Choice) String() string {
	return string(c)
}

// Token is the "$name" form used in calculations and YAML.
func (c Choice) Token() string {
	return "$" + string(c)
}

// Parse reads a "$name" token.
func Parse(s string) (Choice, error) {
	if s == "" {
		return "", ErrEmpty
	}
	if !strings.HasPrefix(s, "$") {
		return "", fmt.Errorf("%w: %q", ErrBadStart, s)
	}
	return Choice(s[1:]), nil
}

func (c Choice) MarshalYAML() (interface{}, error) {
	return c.Token(), nil
}

func (c *Choice) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}

// KindName enumerates what sort of answer a choice expects.
type KindName int

const (
	Ability KindName = iota
	Distance
	Level
	OwnedItem
	Resource
	SavingThrow
	SpellTradition
	Skill
)

var kindNames = map[KindName]string{
	Ability:        "ability",
	Distance:       "distance",
	Level:          "level",
	OwnedItem:      "owned item",
	Resource:       "resource",
	SavingThrow:    "saving throw",
	SpellTradition: "spell tradition",
	Skill:          "skill",
}

func (k KindName) String() string {
	return kindNames[k]
}

func parseKindName(s string) (KindName, error) {
	spaced := strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s)))
	compact := strings.ReplaceAll(spaced, " ", "")
	for k, name := range kindNames {
		if name == spaced || strings.ReplaceAll(name, " ", "") == compact {
			return k, nil
		}
	}
	return Ability, fmt.Errorf("choice: unknown kind %q", s)
}

// Kind describes the expected answer. ResourceType and Trait only apply to
// the Resource kind.
type Kind struct {
	Name         KindName
	ResourceType rref.Type
	Trait        string
}

func (k Kind) String() string {
	switch k.Name {
	case Ability:
		return "an ability"
	case Distance:
		return "a distance"
	case Level:
		return "a level"
	case OwnedItem:
		return "an owned item"
	case Resource:
		if k.Trait != "" {
			return fmt.Sprintf("%s (with trait %q)", k.ResourceType, k.Trait)
		}
		return k.ResourceType.String()
	case SavingThrow:
		return "a saving throw"
	case SpellTradition:
		return "a spell tradition"
	default:
		return "a skill"
	}
}

type resourceKindFields struct {
	Type  rref.Type `yaml:"type"`
	Trait string    `yaml:"trait,omitempty"`
}

func (k Kind) MarshalYAML() (interface{}, error) {
	if k.Name == Resource {
		return map[string]resourceKindFields{"resource": {Type: k.ResourceType, Trait: k.Trait}}, nil
	}
	return k.Name.String(), nil
}

// UnmarshalYAML accepts a kind name, or {resource: {type, trait}}.
func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		name, err := parseKindName(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		if name == Resource {
			return fmt.Errorf("choice: line %d: resource kind requires a type", node.Line)
		}
		*k = Kind{Name: name}
		return nil
	case yaml.MappingNode:
		var m map[string]resourceKindFields
		if err := node.Decode(&m); err != nil {
			return err
		}
		for key, f := range m {
			if name, err := parseKindName(key); err != nil || name != Resource {
				return fmt.Errorf("choice: line %d: unexpected kind %q", node.Line, key)
			}
			*k = Kind{Name: Resource, ResourceType: f.Type, Trait: f.Trait}
			return nil
		}
	}
	return fmt.Errorf("choice: line %d: invalid kind", node.Line)
}

// DefaultDescription is shown for choices declared without a description.
const DefaultDescription = "No description provided"

// Meta declares a choice on a resource.
type Meta struct {
	Kind Kind `yaml:"kind"`
	// From names the resource that owns the answer when it is not the
	// declaring resource.
	From          *rref.Ref `yaml:"from,omitempty"`
	Key           bool      `yaml:"key,omitempty"`
	CharacterWide bool      `yaml:"character_wide,omitempty"`
	Description   string    `yaml:"description,omitempty"`
}

// DescriptionText returns the description or DefaultDescription.
func (m Meta) DescriptionText() string {
	if m.Description == "" {
		return DefaultDescription
	}
	return m.Description
}
