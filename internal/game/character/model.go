// Package character defines the character domain model and resolves the
// values derived from a character's resources.
package character

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
)

// WornArmor is the character-wide choice naming the armor item being worn.
const WornArmor choice.Choice = "Worn Armor"

// LevelChoice is the choice holding a class's level.
const LevelChoice choice.Choice = "Level"

// answerKey identifies an answer by its owning resource and the folded
// choice name. The owner's type is not part of the key.
type answerKey struct {
	name     string
	modifier string
	choice   string
}

func keyOf(owner rref.Ref, c choice.Choice) answerKey {
	return answerKey{name: owner.Name, modifier: owner.Modifier, choice: c.Key()}
}

type answer struct {
	owner  rref.Ref
	choice choice.Choice
	value  interface{}
}

// Character is a player character: who it is, the resources it has acquired,
// and the answers given to those resources' choices.
//
// A Character must not be copied after first use. Evaluations of one
// Character must be serialized by the caller.
type Character struct {
	ID     uuid.UUID
	Name   string
	Player string

	resources []rref.Ref
	answers   map[answerKey]answer
	wide      map[string]answer

	guard guard
}

// New returns a character with a fresh ID and no resources.
//
// Postcondition: Returns a non-nil *Character.
func New(name, player string) *Character {
	return &Character{
		ID:      uuid.New(),
		Name:    name,
		Player:  player,
		answers: make(map[answerKey]answer),
		wide:    make(map[string]answer),
	}
}

func (c *Character) init() {
	if c.answers == nil {
		c.answers = make(map[answerKey]answer)
	}
	if c.wide == nil {
		c.wide = make(map[string]answer)
	}
}

// Resources returns the acquired references in acquisition order.
func (c *Character) Resources() []rref.Ref {
	return append([]rref.Ref(nil), c.resources...)
}

// sameResource reports whether a and b name the same acquisition. An untyped
// reference is compatible with any type.
func sameResource(a, b rref.Ref) bool {
	if a.Name != b.Name || a.Modifier != b.Modifier {
		return false
	}
	return !a.IsTyped() || !b.IsTyped() || a.Type == b.Type
}

// HasResource reports whether an acquired reference satisfies want. A want
// without a modifier matches any modifier.
func (c *Character) HasResource(want rref.Ref) bool {
	for _, have := range c.resources {
		if have.Name != want.Name {
			continue
		}
		if want.Modifier != "" && have.Modifier != want.Modifier {
			continue
		}
		if have.IsTyped() && want.IsTyped() && have.Type != want.Type {
			continue
		}
		return true
	}
	return false
}

// AddResource acquires ref.
//
// Postcondition: returns false, leaving c unchanged, when an equivalent
// reference is already acquired.
func (c *Character) AddResource(ref rref.Ref) bool {
	for _, have := range c.resources {
		if sameResource(have, ref) {
			return false
		}
	}
	c.resources = append(c.resources, ref)
	return true
}

// RemoveResource drops every acquired reference equivalent to ref.
//
// Postcondition: returns whether anything was removed. Answers owned by ref
// are kept so the resource can be re-acquired without losing them.
func (c *Character) RemoveResource(ref rref.Ref) bool {
	kept := c.resources[:0]
	removed := false
	for _, have := range c.resources {
		if sameResource(have, ref) {
			removed = true
			continue
		}
		kept = append(kept, have)
	}
	c.resources = kept
	return removed
}

// SetChoice records value as the answer to ch on owner.
func (c *Character) SetChoice(owner rref.Ref, ch choice.Choice, value interface{}) {
	c.init()
	c.answers[keyOf(owner, ch)] = answer{owner: owner, choice: ch, value: value}
}

// RemoveChoice forgets the answer to ch on owner.
func (c *Character) RemoveChoice(owner rref.Ref, ch choice.Choice) {
	delete(c.answers, keyOf(owner, ch))
}

// SetCharacterWideChoice records value as the character-wide answer to ch.
func (c *Character) SetCharacterWideChoice(ch choice.Choice, value interface{}) {
	c.init()
	c.wide[ch.Key()] = answer{choice: ch, value: value}
}

func (c *Character) RemoveCharacterWideChoice(ch choice.Choice) {
	delete(c.wide, ch.Key())
}

// Answer returns the raw answer to ch on owner.
func (c *Character) Answer(owner rref.Ref, ch choice.Choice) (interface{}, bool) {
	a, ok := c.answers[keyOf(owner, ch)]
	return a.value, ok
}

// CharacterWideAnswer returns the raw character-wide answer to ch.
func (c *Character) CharacterWideAnswer(ch choice.Choice) (interface{}, bool) {
	a, ok := c.wide[ch.Key()]
	return a.value, ok
}
