package effect

import (
	"regexp"
	"strings"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

var (
	proficiencyIncreasePattern = regexp.MustCompile(
		`^([Yy]our proficiency ranks? for )(.+?)( increases? to )(?i:(untrained|trained|expert|master|legendary))(\.?)$`)
	targetSeparator = regexp.MustCompile(`,\s*(?:and\s+)?|\s+and\s+`)
)

const simpleAndMartial = "simple and martial weapons"

var savingThrowTargets = map[string]string{
	"Fortitude saves": "FORT",
	"Reflex saves":    "REF",
	"Will saves":      "WILL",
}

// ParseProficiencyIncrease reads a class feature sentence such as
// "Your proficiency ranks for Fortitude saves and Will saves increase to expert."
//
// Postcondition: on success, returns one IncreaseProficiency per target and
// the sentence rewritten with the expanded target list.
func ParseProficiencyIncrease(sentence string) (string, []IncreaseProficiency, bool) {
	m := proficiencyIncreasePattern.FindStringSubmatch(strings.TrimSpace(sentence))
	if m == nil {
		return "", nil, false
	}
	rank, err := stats.ParseProficiency(m[4])
	if err != nil {
		return "", nil, false
	}
	targets := proficiencyTargets(m[2])
	if len(targets) == 0 {
		return "", nil, false
	}

	var names strings.Builder
	for i, t := range targets {
		switch {
		case len(targets) > 2 && i == len(targets)-1:
			names.WriteString(", and ")
		case i > 0:
			names.WriteString(", ")
		}
		names.WriteString(t)
	}
	desc := m[1] + names.String() + m[3] + rank.String() + m[5]

	effects := make([]IncreaseProficiency, 0, len(targets))
	for _, t := range targets {
		effects = append(effects, IncreaseProficiency{In: t, Rank: rank})
	}
	return desc, effects, true
}

func proficiencyTargets(list string) []string {
	const placeholder = "\x00"
	list = strings.ReplaceAll(list, simpleAndMartial, placeholder)
	var out []string
	for _, raw := range targetSeparator.Split(list, -1) {
		t := strings.TrimSpace(raw)
		switch {
		case t == "":
			continue
		case t == placeholder:
			out = append(out, "simple weapons", "martial weapons")
		case savingThrowTargets[t] != "":
			out = append(out, savingThrowTargets[t])
		default:
			out = append(out, t)
		}
	}
	return out
}
