package character

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrCircularEvaluation is wrapped by every *CircularEvaluationError.
var ErrCircularEvaluation = errors.New("character: circular evaluation")

// EvalKind names what was being evaluated when a cycle was found.
type EvalKind int

const (
	ChoiceEval EvalKind = iota
	ResourceEval
	ModifierEval
	ProficiencyEval
)

func (k EvalKind) String() string {
	switch k {
	case ChoiceEval:
		return "choice"
	case ResourceEval:
		return "resource"
	case ModifierEval:
		return "modifier"
	default:
		return "proficiency"
	}
}

// CircularEvaluationError reports a key that was entered while it was
// already being evaluated. Path is the stack for Kind, oldest first.
type CircularEvaluationError struct {
	Kind EvalKind
	Key  string
	Path []string
}

func (e *CircularEvaluationError) Error() string {
	return fmt.Sprintf("Attempted to evaluate %s %s multiple times! Path was %s",
		e.Kind, e.Key, strings.Join(e.Path, " -> "))
}

func (e *CircularEvaluationError) Unwrap() error { return ErrCircularEvaluation }

// guard tracks in-progress evaluations, one stack per kind.
type guard struct {
	mu     sync.Mutex
	stacks [4][]string
}

// enter pushes key onto the stack for kind.
//
// Postcondition: returns a *CircularEvaluationError, leaving the stack
// unchanged, when key is already on it.
func (g *guard) enter(kind EvalKind, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	stack := g.stacks[kind]
	for _, k := range stack {
		if k == key {
			path := append(append([]string(nil), stack...), key)
			return &CircularEvaluationError{Kind: kind, Key: key, Path: path}
		}
	}
	g.stacks[kind] = append(stack, key)
	return nil
}

// exit pops key from the stack for kind.
//
// Precondition: key must be the most recent key entered for kind.
func (g *guard) exit(kind EvalKind, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	stack := g.stacks[kind]
	if len(stack) == 0 || stack[len(stack)-1] != key {
		panic(fmt.Sprintf("character.guard: precondition violated: exit %s %q does not match stack %v", kind, key, stack))
	}
	g.stacks[kind] = stack[:len(stack)-1]
}

// depth reports the total number of in-progress evaluations.
func (g *guard) depth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.stacks {
		n += len(s)
	}
	return n
}
