package ruleset

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ActionType is the cost of an Action.
type ActionType int

const (
	FreeAction ActionType = iota
	Reaction
	OneAction
	TwoActions
	ThreeActions
)

var actionTypeNames = map[ActionType]string{
	FreeAction:   "free action",
	Reaction:     "reaction",
	OneAction:    "one action",
	TwoActions:   "two actions",
	ThreeActions: "three actions",
}

var actionTypeAliases = map[string]ActionType{
	"free":          FreeAction,
	"free action":   FreeAction,
	"reaction":      Reaction,
	"1":             OneAction,
	"1 action":      OneAction,
	"one":           OneAction,
	"one action":    OneAction,
	"2":             TwoActions,
	"2 actions":     TwoActions,
	"two":           TwoActions,
	"two actions":   TwoActions,
	"3":             ThreeActions,
	"3 actions":     ThreeActions,
	"three":         ThreeActions,
	"three actions": ThreeActions,
}

func (a ActionType) String() string {
	if s, ok := actionTypeNames[a]; ok {
		return s
	}
	return fmt.Sprintf("ActionType(%d)", int(a))
}

// ParseActionType accepts "free", "reaction", 1-3 and their spelled-out forms.
func ParseActionType(s string) (ActionType, error) {
	if a, ok := actionTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return FreeAction, fmt.Errorf("ruleset: unknown action type %q", s)
}

func (a ActionType) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML accepts the integers 1 to 3 as well as any ParseActionType
// form.
func (a *ActionType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("ruleset: line %d: expected an action type", node.Line)
	}
	parsed, err := ParseActionType(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = parsed
	return nil
}
