// Package aon imports rules entries scraped from Archives of Nethys. The
// scraper writes one JSON array of entries per file.
package aon

// Entry is one scraped rules entry. Fields a category does not use are empty.
type Entry struct {
	// Category names the resource type, e.g. "feat" or "class feature".
	Category      string
	Name          string
	Level         int
	Traits        []string
	Prerequisites string
	Requirements  string
	Description   string
	// Actions is the action cost printed beside an activity's name,
	// e.g. "Two Actions" or "Reaction".
	Actions string
	// Class owns a class feature.
	Class string
	// Ancestry owns a heritage.
	Ancestry      string
	Slot          string
	ArmorCategory string
}
