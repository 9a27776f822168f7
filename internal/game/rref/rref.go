// Package rref defines references to game resources by name, optional
// modifier and optional resource type.
package rref

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is the kind of a resource. AnyType marks a reference that must be
// resolved by name alone.
type Type int

const (
	AnyType Type = iota
	Action
	Ancestry
	Background
	Class
	ClassFeature
	Feat
	Heritage
	Item
	Spell
)

// Types lists every concrete resource type.
var Types = []Type{Action, Ancestry, Background, Class, ClassFeature, Feat, Heritage, Item, Spell}

var typeNames = map[Type]string{
	Action:       "action",
	Ancestry:     "ancestry",
	Background:   "background",
	Class:        "class",
	ClassFeature: "class feature",
	Feat:         "feat",
	Heritage:     "heritage",
	Item:         "item",
	Spell:        "spell",
}

func (t Type) String() string {
	if t == AnyType {
		return ""
	}
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType parses a type name. "class-feature" is accepted for ClassFeature.
func ParseType(s string) (Type, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", " ")
	for _, t := range Types {
		if typeNames[t] == s {
			return t, nil
		}
	}
	return AnyType, fmt.Errorf("rref: unknown resource type %q", s)
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
		return err
	}
	*t = parsed
	return nil
}

// Ref names a resource. Its text form is "name (modifier) [type]" with both
// suffixes optional.
type Ref struct {
	Name     string
	Modifier string
	Type     Type
}

// New builds an untyped reference without a modifier.
func New(name string) Ref {
	return Ref{Name: name}
}

// Typed builds a typed reference without a modifier.
func Typed(name string, t Type) Ref {
	return Ref{Name: name, Type: t}
}

// WithType returns a copy of r carrying t.
func (r Ref) WithType(t Type) Ref {
	r.Type = t
	return r
}

// Unmodified drops the modifier. Store lookups key on the result.
func (r Ref) Unmodified() Ref {
	r.Modifier = ""
	return r
}

// IsTyped reports whether r names a concrete resource type.
func (r Ref) IsTyped() bool {
	return r.Type != AnyType
}

func (r Ref) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if r.Modifier != "" {
		fmt.Fprintf(&sb, " (%s)", r.Modifier)
	}
	if r.Type != AnyType {
		fmt.Fprintf(&sb, " [%s]", r.Type)
	}
	return sb.String()
}

var refPattern = regexp.MustCompile(`^([\p{L}\-_ /'’]+?)(?:\s*\(([\p{L}\p{N}+\-_ ]+)\))?(?:\s*\[([A-Za-z\- ]+)\])?$`)

// Parse reads the text form of a reference.
func Parse(s string) (Ref, error) {
	match := refPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return Ref{}, fmt.Errorf("rref: invalid resource reference %q", s)
	}
	name := strings.TrimSpace(match[1])
	if name == "" {
		return Ref{}, fmt.Errorf("rref: empty resource name in %q", s)
	}
	r := Ref{Name: name, Modifier: strings.TrimSpace(match[2])}
	if match[3] != "" {
		t, err := ParseType(match[3])
		if err != nil {
			return Ref{}, err
		}
		r.Type = t
	}
	return r, nil
}

// MustParse is Parse for references known to be valid.
//
// Precondition: s must parse.
func MustParse(s string) Ref {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Ref) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Ref) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return r.UnmarshalText([]byte(s))
}
