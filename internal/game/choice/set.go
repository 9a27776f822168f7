package choice

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type entry struct {
	choice Choice
	meta   Meta
}

// Set holds the choices a resource declares, in declaration order.
// At most one choice in a Set is the key choice.
type Set struct {
	entries []entry
	index   map[string]int
}

// Add declares c with meta, replacing any previous declaration of c.
//
// Postcondition: when meta.Key is set, any other key choice is demoted and
// returned with ok true so the caller can report it.
func (s *Set) Add(c Choice, meta Meta) (demoted Choice, ok bool) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if meta.Key {
		for i := range s.entries {
			if s.entries[i].meta.Key && !s.entries[i].choice.Equal(c) {
				s.entries[i].meta.Key = false
				demoted, ok = s.entries[i].choice, true
			}
		}
	}
	if i, exists := s.index[c.Key()]; exists {
		s.entries[i] = entry{choice: c, meta: meta}
		return demoted, ok
	}
	s.index[c.Key()] = len(s.entries)
	s.entries = append(s.entries, entry{choice: c, meta: meta})
	return demoted, ok
}

// Get returns the declaration of c.
func (s *Set) Get(c Choice) (Meta, bool) {
	if s == nil || s.index == nil {
		return Meta{}, false
	}
	i, ok := s.index[c.Key()]
	if !ok {
		return Meta{}, false
	}
	return s.entries[i].meta, true
}

// KeyChoice returns the key choice, if any.
func (s *Set) KeyChoice() (Choice, bool) {
	if s == nil {
		return "", false
	}
	for _, e := range s.entries {
		if e.meta.Key {
			return e.choice, true
		}
	}
	return "", false
}

// IsZero reports whether no choices are declared. yaml.v3 consults it for
// omitempty.
func (s Set) IsZero() bool { return len(s.entries) == 0 }

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Each calls fn for every declared choice in declaration order.
func (s *Set) Each(fn func(Choice, Meta)) {
	if s == nil {
		return
	}
	for _, e := range s.entries {
		fn(e.choice, e.meta)
	}
}

func (s Set) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range s.entries {
		var k, v yaml.Node
		if err := k.Encode(e.choice); err != nil {
			return nil, err
		}
		if err := v.Encode(e.meta); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &k, &v)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping of "$name" to Meta, keeping document order.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("choice: line %d: choices must be a mapping", node.Line)
	}
	*s = Set{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var c Choice
		if err := node.Content[i].Decode(&c); err != nil {
			return err
		}
		var m Meta
		if err := node.Content[i+1].Decode(&m); err != nil {
			return err
		}
		s.Add(c, m)
	}
	return nil
}
