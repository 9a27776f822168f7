package character

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/choice"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
)

// file is the on-disk shape of a character. Choices are keyed by the owning
// reference's text form, then by the choice's "$Name" token.
type file struct {
	ID            string                            `yaml:"id,omitempty"`
	Name          string                            `yaml:"name"`
	Player        string                            `yaml:"player,omitempty"`
	Resources     []rref.Ref                        `yaml:"resources,omitempty"`
	Choices       map[string]map[string]interface{} `yaml:"choices,omitempty"`
	CharacterWide map[string]interface{}            `yaml:"character_wide,omitempty"`
}

// Decode reads a character from YAML. A missing id is replaced by a fresh
// one.
//
// Precondition: r must be non-nil.
// Postcondition: returns an error on unknown fields, an unnamed character, or
// malformed references and choice names.
func Decode(r io.Reader) (*Character, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("character: decoding: %w", err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("character: decoding: name is required")
	}

	c := New(f.Name, f.Player)
	if f.ID != "" {
		id, err := uuid.Parse(f.ID)
		if err != nil {
			return nil, fmt.Errorf("character: decoding id %q: %w", f.ID, err)
		}
		c.ID = id
	}
	for _, ref := range f.Resources {
		c.AddResource(ref)
	}
	for owner, answers := range f.Choices {
		ref, err := rref.Parse(owner)
		if err != nil {
			return nil, fmt.Errorf("character: decoding choices: %w", err)
		}
		for name, v := range answers {
			ch, err := choice.Parse(name)
			if err != nil {
				return nil, fmt.Errorf("character: decoding choices of %s: %w", ref, err)
			}
			c.SetChoice(ref, ch, v)
		}
	}
	for name, v := range f.CharacterWide {
		ch, err := choice.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("character: decoding character-wide choices: %w", err)
		}
		c.SetCharacterWideChoice(ch, v)
	}
	return c, nil
}

// Encode writes c as YAML in the form Decode reads.
func Encode(w io.Writer, c *Character) error {
	f := file{
		ID:        c.ID.String(),
		Name:      c.Name,
		Player:    c.Player,
		Resources: c.Resources(),
	}
	for _, a := range c.answers {
		if f.Choices == nil {
			f.Choices = make(map[string]map[string]interface{})
		}
		owner := a.owner.String()
		if f.Choices[owner] == nil {
			f.Choices[owner] = make(map[string]interface{})
		}
		f.Choices[owner][a.choice.Token()] = answerValue(a.value)
	}
	for _, a := range c.wide {
		if f.CharacterWide == nil {
			f.CharacterWide = make(map[string]interface{})
		}
		f.CharacterWide[a.choice.Token()] = answerValue(a.value)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("character: encoding %q: %w", c.Name, err)
	}
	return enc.Close()
}

// answerValue renders references as text so they read back as strings.
func answerValue(v interface{}) interface{} {
	if ref, ok := v.(rref.Ref); ok {
		return ref.String()
	}
	return v
}

// LoadFile reads a character file.
func LoadFile(path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("character: reading %q: %w", path, err)
	}
	c, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// SaveFile writes c to path, replacing any existing file.
func SaveFile(path string, c *Character) error {
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("character: writing %q: %w", path, err)
	}
	return nil
}

// LoadDirectory reads every *.yaml character file in dir, sorted by ID.
//
// Postcondition: returns an error on the first unreadable file or on two
// files sharing an ID.
func LoadDirectory(dir string) ([]*Character, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("character: reading dir %q: %w", dir, err)
	}
	seen := make(map[uuid.UUID]string)
	var out []*Character
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		c, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("character: %s and %s share id %s", prev, path, c.ID)
		}
		seen[c.ID] = path
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}
