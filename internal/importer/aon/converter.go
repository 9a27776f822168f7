package aon

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/calc"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/condition"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/effect"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

// actionNames maps the action glyph captions used by the site to the forms
// ruleset.ParseActionType reads.
var actionNames = map[string]string{
	"free action":   "free",
	"reaction":      "reaction",
	"single action": "1",
	"one action":    "1",
	"two actions":   "2",
	"three actions": "3",
}

// Convert builds the resources described by e. A feat with an action cost
// yields the feat and an action of the same name; the feat grants the action.
//
// Precondition: logger must be non-nil.
// Postcondition: returns at least one resource, or an error when the entry's
// category or a typed field is not recognised. Unparseable prose is logged
// and left out.
func Convert(e Entry, logger *zap.Logger) ([]ruleset.Resource, error) {
	t, err := rref.ParseType(e.Category)
	if err != nil {
		return nil, fmt.Errorf("aon: %q: %w", e.Name, err)
	}
	if t == rref.AnyType {
		return nil, fmt.Errorf("aon: %q: category is required", e.Name)
	}
	res := ruleset.New(t, e.Name)
	c := res.Base()
	c.AddTraits(e.Traits...)
	if s := strings.TrimSpace(e.Prerequisites); s != "" {
		c.AddPrerequisite(condition.ParsePrerequisites(s))
	}
	if s := strings.TrimSpace(e.Requirements); s != "" {
		c.AddRequirement(condition.ParsePrerequisites(s))
	}

	description := e.Description
	if t == rref.ClassFeature {
		var incs []effect.IncreaseProficiency
		description, incs = proficiencyIncreases(description)
		for _, inc := range incs {
			c.AddEffect(inc)
		}
	}

	var extra []ruleset.Resource
	switch r := res.(type) {
	case *ruleset.Feat:
		r.Level = stats.Level(e.Level)
		if e.Actions != "" {
			at, err := actionType(e)
			if err != nil {
				return nil, err
			}
			action := ruleset.New(rref.Action, e.Name).(*ruleset.Action)
			action.ActionType = at
			action.AddTraits(e.Traits...)
			action.Prerequisites = c.Prerequisites
			action.Requirements = c.Requirements
			setDescription(&action.Common, description, logger)
			r.AddEffect(effect.GrantSpecificResource{Resource: ruleset.RefOf(action)})
			description = fmt.Sprintf("You gain the %s action.", e.Name)
			extra = append(extra, action)
		}
	case *ruleset.Action:
		at, err := actionType(e)
		if err != nil {
			return nil, err
		}
		r.ActionType = at
	case *ruleset.ClassFeature:
		if e.Class != "" {
			r.Class = rref.Typed(e.Class, rref.Class)
		}
	case *ruleset.Heritage:
		if e.Ancestry != "" {
			r.Ancestry = rref.Typed(e.Ancestry, rref.Ancestry)
		}
	case *ruleset.Item:
		r.Level = stats.Level(e.Level)
		if e.Slot != "" {
			slot, err := stats.ParseItemSlot(e.Slot)
			if err != nil {
				return nil, fmt.Errorf("aon: %q: %w", e.Name, err)
			}
			r.Slot = slot
		}
		if e.ArmorCategory != "" {
			cat, err := stats.ParseArmorCategory(e.ArmorCategory)
			if err != nil {
				return nil, fmt.Errorf("aon: %q: %w", e.Name, err)
			}
			r.ArmorCategory = cat
		}
	case *ruleset.Spell:
		r.Level = stats.Level(e.Level)
	}

	setDescription(c, description, logger)
	return append([]ruleset.Resource{res}, extra...), nil
}

func actionType(e Entry) (ruleset.ActionType, error) {
	name := strings.ToLower(strings.TrimSpace(e.Actions))
	if alias, ok := actionNames[name]; ok {
		name = alias
	}
	at, err := ruleset.ParseActionType(name)
	if err != nil {
		return at, fmt.Errorf("aon: %q: %w", e.Name, err)
	}
	return at, nil
}

func setDescription(c *ruleset.Common, text string, logger *zap.Logger) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	cs, err := calc.ParseCalculatedString(text)
	if err != nil {
		logger.Warn("dropping unparseable description",
			zap.String("resource", c.Name),
			zap.Error(err),
		)
		return
	}
	c.Description = cs
}

// proficiencyIncreases rewrites each proficiency-increase sentence of text in
// its expanded form and returns the increases it describes.
func proficiencyIncreases(text string) (string, []effect.IncreaseProficiency) {
	var (
		out  []string
		incs []effect.IncreaseProficiency
	)
	for _, sentence := range strings.SplitAfter(text, ". ") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if rewritten, found, ok := effect.ParseProficiencyIncrease(sentence); ok {
			sentence = rewritten
			incs = append(incs, found...)
		}
		out = append(out, sentence)
	}
	return strings.Join(out, " "), incs
}
