package calc

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Part is one segment of a CalculatedString. A nil Calc marks literal text.
type Part struct {
	Text string
	Calc Calculation
}

// CalculatedString is text with embedded "[[ calc ]]" segments that are
// evaluated per character.
type CalculatedString struct {
	Parts []Part
}

// ParseCalculatedString splits s on "[[" and "]]" and parses each embedded
// calculation.
func ParseCalculatedString(s string) (CalculatedString, error) {
	var out CalculatedString
	rest := s
	for rest != "" {
		open := strings.Index(rest, "[[")
		if open < 0 {
			out.Parts = append(out.Parts, Part{Text: rest})
			break
		}
		if open > 0 {
			out.Parts = append(out.Parts, Part{Text: rest[:open]})
		}
		rest = rest[open+2:]
		end := strings.Index(rest, "]]")
		if end < 0 {
			return CalculatedString{}, fmt.Errorf("calc: unterminated \"[[\" in %q", s)
		}
		c, err := Parse(rest[:end])
		if err != nil {
			return CalculatedString{}, err
		}
		out.Parts = append(out.Parts, Part{Calc: c})
		rest = rest[end+2:]
	}
	return out, nil
}

// Evaluate renders the string with every calculation replaced by its value.
func (cs CalculatedString) Evaluate(ctx Context) (string, error) {
	var sb strings.Builder
	for _, p := range cs.Parts {
		if p.Calc == nil {
			sb.WriteString(p.Text)
			continue
		}
		v, err := p.Calc.Evaluate(ctx)
		if err != nil {
			return "", err
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String(), nil
}

func (cs CalculatedString) String() string {
	var sb strings.Builder
	for _, p := range cs.Parts {
		if p.Calc == nil {
			sb.WriteString(p.Text)
			continue
		}
		sb.WriteString("[[ " + p.Calc.String() + " ]]")
	}
	return sb.String()
}

func (cs CalculatedString) IsEmpty() bool {
	return len(cs.Parts) == 0
}

// Concat appends other to cs. Adjacent literal parts are joined and adjacent
// calculations are summed.
func (cs CalculatedString) Concat(other CalculatedString) (CalculatedString, error) {
	out := CalculatedString{Parts: append([]Part(nil), cs.Parts...)}
	for _, p := range other.Parts {
		if len(out.Parts) == 0 {
			out.Parts = append(out.Parts, p)
			continue
		}
		last := &out.Parts[len(out.Parts)-1]
		switch {
		case p.Calc == nil && last.Calc == nil:
			last.Text += p.Text
		case p.Calc != nil && last.Calc != nil:
			merged, err := Normalize(Sum(last.Calc, p.Calc))
			if err != nil {
				return CalculatedString{}, err
			}
			last.Calc = merged
		default:
			out.Parts = append(out.Parts, p)
		}
	}
	return out, nil
}

func (cs CalculatedString) MarshalYAML() (interface{}, error) {
	return cs.String(), nil
}

func (cs *CalculatedString) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseCalculatedString(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*cs = parsed
	return nil
}

// Expr carries a Calculation through YAML as an integer or expression text.
type Expr struct {
	Calculation
}

// NewExpr wraps c.
func NewExpr(c Calculation) Expr {
	return Expr{Calculation: c}
}

// IsSet reports whether the expression holds a calculation.
func (e Expr) IsSet() bool {
	return e.Calculation != nil
}

// EvaluateOr evaluates e, returning def when it is unset.
func (e Expr) EvaluateOr(ctx Context, def int) (int, error) {
	if e.Calculation == nil {
		return def, nil
	}
	return e.Evaluate(ctx)
}

func (e Expr) MarshalYAML() (interface{}, error) {
	if e.Calculation == nil {
		return nil, nil
	}
	return e.Calculation.String(), nil
}

func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("calc: line %d: expected an expression", node.Line)
	}
	c, err := Parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	e.Calculation = c
	return nil
}
