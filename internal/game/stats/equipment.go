package stats

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ability is one of the six ability score names.
type Ability string

const (
	STR Ability = "STR"
	DEX Ability = "DEX"
	CON Ability = "CON"
	INT Ability = "INT"
	WIS Ability = "WIS"
	CHA Ability = "CHA"
)

// Abilities lists the ability scores in sheet order.
var Abilities = []Ability{STR, DEX, CON, INT, WIS, CHA}

// ParseAbility accepts the three-letter abbreviation or the full name.
func ParseAbility(s string) (Ability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "str", "strength":
		return STR, nil
	case "dex", "dexterity":
		return DEX, nil
	case "con", "constitution":
		return CON, nil
	case "int", "intelligence":
		return INT, nil
	case "wis", "wisdom":
		return WIS, nil
	case "cha", "charisma":
		return CHA, nil
	}
	return "", fmt.Errorf("stats: unknown ability %q", s)
}

func (a *Ability) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseAbility(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ArmorCategory is the weight class of worn armor.
type ArmorCategory int

const (
	Unarmored ArmorCategory = iota
	LightArmor
	MediumArmor
	HeavyArmor
)

var armorCategoryNames = map[ArmorCategory]string{
	Unarmored:   "unarmored",
	LightArmor:  "light armor",
	MediumArmor: "medium armor",
	HeavyArmor:  "heavy armor",
}

func (a ArmorCategory) String() string {
	if s, ok := armorCategoryNames[a]; ok {
		return s
	}
	return fmt.Sprintf("ArmorCategory(%d)", int(a))
}

// ParseArmorCategory accepts "unarmored" or "<light|medium|heavy>[ armor]".
func ParseArmorCategory(s string) (ArmorCategory, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), " armor") {
	case "unarmored", "none":
		return Unarmored, nil
	case "light":
		return LightArmor, nil
	case "medium":
		return MediumArmor, nil
	case "heavy":
		return HeavyArmor, nil
	}
	return Unarmored, fmt.Errorf("stats: unknown armor category %q", s)
}

func (a ArmorCategory) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

func (a *ArmorCategory) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseArmorCategory(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ItemSlot classifies an item for trait matching. AnySlot only appears in
// conditions and matches every item.
type ItemSlot string

const (
	AnySlot    ItemSlot = "any"
	ArmorSlot  ItemSlot = "armor"
	ShieldSlot ItemSlot = "shield"
	WeaponSlot ItemSlot = "weapon"
	OtherSlot  ItemSlot = "other"
)

// ParseItemSlot parses a slot name. The empty string is AnySlot.
func ParseItemSlot(s string) (ItemSlot, error) {
	switch v := ItemSlot(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return AnySlot, nil
	case AnySlot, ArmorSlot, ShieldSlot, WeaponSlot, OtherSlot:
		return v, nil
	}
	return AnySlot, fmt.Errorf("stats: unknown item slot %q", s)
}

// Matches reports whether an item in slot other satisfies s.
func (s ItemSlot) Matches(other ItemSlot) bool {
	return s == AnySlot || s == "" || s == other
}

func (s *ItemSlot) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseItemSlot(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
