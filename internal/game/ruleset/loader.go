package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is one YAML document in a resource file. Exactly one field is set.
type document struct {
	Action       *Action       `yaml:"action,omitempty"`
	Ancestry     *Ancestry     `yaml:"ancestry,omitempty"`
	Background   *Background   `yaml:"background,omitempty"`
	Class        *Class        `yaml:"class,omitempty"`
	ClassFeature *ClassFeature `yaml:"class feature,omitempty"`
	Feat         *Feat         `yaml:"feat,omitempty"`
	Heritage     *Heritage     `yaml:"heritage,omitempty"`
	Item         *Item         `yaml:"item,omitempty"`
	Spell        *Spell        `yaml:"spell,omitempty"`
}

func (d document) resources() []Resource {
	var out []Resource
	if d.Action != nil {
		out = append(out, d.Action)
	}
	if d.Ancestry != nil {
		out = append(out, d.Ancestry)
	}
	if d.Background != nil {
		out = append(out, d.Background)
	}
	if d.Class != nil {
		out = append(out, d.Class)
	}
	if d.ClassFeature != nil {
		out = append(out, d.ClassFeature)
	}
	if d.Feat != nil {
		out = append(out, d.Feat)
	}
	if d.Heritage != nil {
		out = append(out, d.Heritage)
	}
	if d.Item != nil {
		out = append(out, d.Item)
	}
	if d.Spell != nil {
		out = append(out, d.Spell)
	}
	return out
}

func documentOf(r Resource) (document, error) {
	switch v := r.(type) {
	case *Action:
		return document{Action: v}, nil
	case *Ancestry:
		return document{Ancestry: v}, nil
	case *Background:
		return document{Background: v}, nil
	case *Class:
		return document{Class: v}, nil
	case *ClassFeature:
		return document{ClassFeature: v}, nil
	case *Feat:
		return document{Feat: v}, nil
	case *Heritage:
		return document{Heritage: v}, nil
	case *Item:
		return document{Item: v}, nil
	case *Spell:
		return document{Spell: v}, nil
	}
	return document{}, fmt.Errorf("ruleset: unsupported resource %T", r)
}

// Decode reads every resource document from data. Each document is a mapping
// with a single key naming the resource type. Unknown fields are errors.
//
// Postcondition: Returns the resources in document order or a non-nil error.
func Decode(data []byte) ([]Resource, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var out []Resource
	for i := 0; ; i++ {
		var d document
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		rs := d.resources()
		if len(rs) != 1 {
			return nil, fmt.Errorf("document %d: expected exactly one resource, found %d", i, len(rs))
		}
		if rs[0].Base().Name == "" {
			return nil, fmt.Errorf("document %d: %s has no name", i, rs[0].Type())
		}
		out = append(out, rs[0])
	}
}

// Encode writes rs as a multi-document YAML stream readable by Decode.
func Encode(w io.Writer, rs ...Resource) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, r := range rs {
		d, err := documentOf(r)
		if err != nil {
			return err
		}
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encoding %s: %w", RefOf(r), err)
		}
	}
	return enc.Close()
}

// LoadFile reads every resource in the YAML file at path.
//
// Precondition: path must be a readable file.
// Postcondition: Returns the parsed resources or a non-nil error.
func LoadFile(path string) ([]Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	rs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing resource file %s: %w", path, err)
	}
	return rs, nil
}

// LoadDirectory reads all .yaml files in dir, in name order.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed resources (may be empty slice) or a non-nil error.
func LoadDirectory(dir string) ([]Resource, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	var out []Resource
	for _, path := range files {
		rs, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

// LoadInto loads dir and registers every resource with reg.
//
// Postcondition: returns the number of resources read.
func LoadInto(reg *Registry, dir string) (int, error) {
	rs, err := LoadDirectory(dir)
	if err != nil {
		return 0, err
	}
	if err := reg.RegisterAll(rs); err != nil {
		return 0, err
	}
	return len(rs), nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
