package aon

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ParseEntries reads a JSON array of scraped entries.
//
// Precondition: data must be a JSON array of objects.
// Postcondition: returns one Entry per array element, or a non-nil error for
// invalid JSON or an element without a name or category.
func ParseEntries(data []byte) ([]Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("aon: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("aon: expected a JSON array of entries, got %s", root.Type)
	}

	var (
		entries []Entry
		err     error
	)
	root.ForEach(func(_, v gjson.Result) bool {
		e := parseEntry(v)
		if e.Name == "" || e.Category == "" {
			err = fmt.Errorf("aon: entry %d: name and category are required", len(entries))
			return false
		}
		entries = append(entries, e)
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func parseEntry(v gjson.Result) Entry {
	e := Entry{
		Category:      v.Get("category").String(),
		Name:          v.Get("name").String(),
		Level:         int(v.Get("level").Int()),
		Prerequisites: v.Get("prerequisites").String(),
		Requirements:  v.Get("requirements").String(),
		Description:   v.Get("description").String(),
		Actions:       v.Get("actions").String(),
		Class:         v.Get("class").String(),
		Ancestry:      v.Get("ancestry").String(),
		Slot:          v.Get("slot").String(),
		ArmorCategory: v.Get("armor_category").String(),
	}
	v.Get("traits").ForEach(func(_, t gjson.Result) bool {
		e.Traits = append(e.Traits, t.String())
		return true
	})
	return e
}
