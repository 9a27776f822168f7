// Package ruleset holds the game content a character is built from: the
// resource variants, the registry that stores them, and the YAML loader.
package ruleset

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/calc"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/condition"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/effect"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// Resource is one of the concrete resource types in this package:
// *Action, *Ancestry, *Background, *Class, *ClassFeature, *Feat, *Heritage,
// *Item or *Spell.
type Resource interface {
	// Base returns the fields every resource shares.
	Base() *Common
	// Type returns the resource's type.
	Type() rref.Type
}

// RefOf returns the typed, unmodified reference naming r.
func RefOf(r Resource) rref.Ref {
	return rref.Typed(r.Base().Name, r.Type())
}

// Common carries the fields shared by every resource variant.
//
// Prerequisites are advisory: they gate whether the resource may normally be
// chosen. Requirements gate every contribution the resource makes.
type Common struct {
	Name          string                `yaml:"name"`
	Traits        []string              `yaml:"traits,omitempty"`
	Description   calc.CalculatedString `yaml:"description,omitempty"`
	Choices       choice.Set            `yaml:"choices,omitempty"`
	Effects       effect.List           `yaml:"effects,omitempty"`
	Prerequisites condition.Conditions  `yaml:"prerequisites,omitempty"`
	Requirements  condition.Conditions  `yaml:"requirements,omitempty"`
}

// AddTraits appends each trait not already present.
func (c *Common) AddTraits(traits ...string) {
	for _, t := range traits {
		if !c.HasTrait(t) {
			c.Traits = append(c.Traits, t)
		}
	}
}

// HasTrait reports whether t is one of c's traits, ignoring case.
func (c *Common) HasTrait(t string) bool {
	for _, have := range c.Traits {
		if choice.Fold(have) == choice.Fold(t) {
			return true
		}
	}
	return false
}

// AddChoice declares a choice on the resource. Declaring a second key choice
// demotes the first, which is logged.
func (c *Common) AddChoice(name choice.Choice, meta choice.Meta) {
	if demoted, ok := c.Choices.Add(name, meta); ok {
		zap.L().Warn("key choice demoted",
			zap.String("resource", c.Name),
			zap.String("demoted", demoted.String()),
			zap.String("key", name.String()),
		)
	}
}

func (c *Common) AddEffect(e effect.Effect) {
	c.Effects = append(c.Effects, e)
}

func (c *Common) AddPrerequisite(cond condition.Condition) {
	c.Prerequisites = c.Prerequisites.And(cond)
}

func (c *Common) AddRequirement(cond condition.Condition) {
	c.Requirements = c.Requirements.And(cond)
}

// Action is an activity a character can take.
type Action struct {
	Common     `yaml:",inline"`
	ActionType ActionType `yaml:"type"`
}

func (a *Action) Base() *Common   { return &a.Common }
func (a *Action) Type() rref.Type { return rref.Action }

type Ancestry struct {
	Common `yaml:",inline"`
}

func (a *Ancestry) Base() *Common   { return &a.Common }
func (a *Ancestry) Type() rref.Type { return rref.Ancestry }

type Background struct {
	Common `yaml:",inline"`
}

func (b *Background) Base() *Common   { return &b.Common }
func (b *Background) Type() rref.Type { return rref.Background }

// Class is a character class. Advancement lists the class features granted at
// each class level.
type Class struct {
	Common      `yaml:",inline"`
	KeyAbility  []stats.Ability            `yaml:"key_ability,omitempty"`
	HPPerLevel  calc.Expr                  `yaml:"hp_per_level"`
	Advancement map[stats.Level][]rref.Ref `yaml:"advancement,omitempty"`
}

func (c *Class) Base() *Common   { return &c.Common }
func (c *Class) Type() rref.Type { return rref.Class }

// ClassFeature is a feature granted by a class's advancement table.
type ClassFeature struct {
	Common `yaml:",inline"`
	Class  rref.Ref `yaml:"class"`
}

func (c *ClassFeature) Base() *Common   { return &c.Common }
func (c *ClassFeature) Type() rref.Type { return rref.ClassFeature }

type Feat struct {
	Common `yaml:",inline"`
	Level  stats.Level `yaml:"level,omitempty"`
}

func (f *Feat) Base() *Common   { return &f.Common }
func (f *Feat) Type() rref.Type { return rref.Feat }

// Heritage refines an ancestry.
type Heritage struct {
	Common   `yaml:",inline"`
	Ancestry rref.Ref `yaml:"ancestry"`
}

func (h *Heritage) Base() *Common   { return &h.Common }
func (h *Heritage) Type() rref.Type { return rref.Heritage }

// Item is a piece of equipment. ArmorCategory is meaningful only for items
// in the armor slot.
type Item struct {
	Common        `yaml:",inline"`
	Level         stats.Level         `yaml:"level,omitempty"`
	Slot          stats.ItemSlot      `yaml:"slot,omitempty"`
	ArmorCategory stats.ArmorCategory `yaml:"armor_category,omitempty"`
}

func (i *Item) Base() *Common   { return &i.Common }
func (i *Item) Type() rref.Type { return rref.Item }

type Spell struct {
	Common `yaml:",inline"`
	Level  stats.Level `yaml:"level,omitempty"`
}

func (s *Spell) Base() *Common   { return &s.Common }
func (s *Spell) Type() rref.Type { return rref.Spell }

// New returns an empty resource of type t named name.
//
// Precondition: t must not be rref.AnyType.
func New(t rref.Type, name string) Resource {
	c := Common{Name: name}
	switch t {
	case rref.Action:
		return &Action{Common: c}
	case rref.Ancestry:
		return &Ancestry{Common: c}
	case rref.Background:
		return &Background{Common: c}
	case rref.Class:
		return &Class{Common: c}
	case rref.ClassFeature:
		return &ClassFeature{Common: c}
	case rref.Feat:
		return &Feat{Common: c}
	case rref.Heritage:
		return &Heritage{Common: c}
	case rref.Item:
		return &Item{Common: c}
	case rref.Spell:
		return &Spell{Common: c}
	}
	panic("ruleset.New: precondition violated: resource type must be concrete")
}
