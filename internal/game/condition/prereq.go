package condition

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/stats"
)

var (
	rankInPattern    = regexp.MustCompile(`^(?i:(untrained|trained|expert|master|legendary))\s+in\s+(.+)$`)
	unarmoredPattern = regexp.MustCompile(`^[Yy]ou\s+are\s+unarmored$`)
	stancePattern    = regexp.MustCompile(`^[Yy]ou\s+are\s+in(?:\s+[A-Za-z]+)+?\s+Stance$`)
)

// ParsePrerequisites reads a prerequisite sentence such as
// "trained in Deception, Power Attack" into a condition.
//
// The sentence is split on commas and on " and ". Each clause becomes a
// proficiency check, an armor check, a known unenforced stance check, a
// resource reference when it reads as a Title Case name, or an unknown
// unenforced condition otherwise.
func ParsePrerequisites(text string) Condition {
	text = strings.TrimSuffix(strings.TrimSpace(text), ".")
	var out Condition = None{}
	for _, piece := range strings.Split(text, ",") {
		for _, clause := range strings.Split(piece, " and ") {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}
			out = Join(out, parseClause(clause))
		}
	}
	return out
}

func parseClause(s string) Condition {
	if m := rankInPattern.FindStringSubmatch(s); m != nil {
		rank, err := stats.ParseProficiency(m[1])
		if err == nil {
			return Proficiency{Target: strings.TrimSpace(m[2]), Rank: rank}
		}
	}
	if unarmoredPattern.MatchString(s) {
		return ArmorCategory{Category: stats.Unarmored}
	}
	if stancePattern.MatchString(s) {
		return Unenforced{Text: s, Known: true}
	}
	if isTitleCase(s) {
		return HaveResource{Ref: rref.New(s)}
	}
	return Unenforced{Text: s}
}

// isTitleCase reports whether lower-case words make up at most a third of s.
func isTitleCase(s string) bool {
	title, lower := 0, 0
	for _, w := range strings.Fields(s) {
		r := []rune(w)[0]
		if unicode.IsUpper(r) {
			title++
		} else {
			lower++
		}
	}
	return lower*2 <= title
}
