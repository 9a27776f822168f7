// Package session holds the characters loaded into a running process and
// serializes evaluation of each one.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/bonus"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/character"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
)

var (
	// ErrNotFound is returned for an unknown character ID.
	ErrNotFound = errors.New("session: character not found")
	// ErrAmbiguousName is returned when a name lookup matches several
	// characters.
	ErrAmbiguousName = errors.New("session: several characters share the name")
)

// Sheet is a loaded character. Every method holds the sheet's lock, so
// evaluations of one character never interleave while different sheets
// evaluate concurrently.
type Sheet struct {
	mu       sync.Mutex
	c        *character.Character
	resolver *character.Resolver
	// name mirrors c.Name so lookups never wait on an evaluation.
	name atomic.Value
}

func newSheet(c *character.Character, resolver *character.Resolver) *Sheet {
	s := &Sheet{c: c, resolver: resolver}
	s.name.Store(c.Name)
	return s
}

// ID returns the character's ID.
func (s *Sheet) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.ID
}

// Name returns the character's display name. It does not wait for an
// evaluation in progress.
func (s *Sheet) Name() string {
	return s.name.Load().(string)
}

// Evaluate returns the modifier called name.
func (s *Sheet) Evaluate(name, target string) (bonus.Modifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Modifier(s.c, name, target)
}

// Describe renders the description of the acquired resource ref.
func (s *Sheet) Describe(ref rref.Ref) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Describe(s.c, ref)
}

// Unenforced lists the conditions to be adjudicated by hand.
func (s *Sheet) Unenforced() []character.UnenforcedCondition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Unenforced(s.c)
}

// Resources returns the acquired references.
func (s *Sheet) Resources() []rref.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Resources()
}

// Update applies fn to the character and then normalizes its resources.
//
// Precondition: fn must not retain c.
// Postcondition: returns fn's error unchanged without normalizing, otherwise
// the number of references normalization added.
func (s *Sheet) Update(fn func(c *character.Character) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s.c)
	s.name.Store(s.c.Name)
	if err != nil {
		return 0, err
	}
	return s.resolver.NormalizeResources(s.c)
}

// Manager tracks the loaded sheets by character ID.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sheets   map[uuid.UUID]*Sheet
	resolver *character.Resolver
	logger   *zap.Logger
}

// NewManager creates an empty Manager evaluating through resolver.
//
// Precondition: resolver and logger must be non-nil.
// Postcondition: Returns a non-nil *Manager.
func NewManager(resolver *character.Resolver, logger *zap.Logger) *Manager {
	if resolver == nil || logger == nil {
		panic("session.NewManager: precondition violated: resolver and logger must be non-nil")
	}
	return &Manager{
		sheets:   make(map[uuid.UUID]*Sheet),
		resolver: resolver,
		logger:   logger,
	}
}

// Add normalizes c and starts tracking it. The Manager owns c afterwards.
//
// Precondition: c must be non-nil.
// Postcondition: Returns the new Sheet, or an error if the ID is already
// loaded or normalization fails.
func (m *Manager) Add(c *character.Character) (*Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sheets[c.ID]; exists {
		return nil, fmt.Errorf("character %s already loaded", c.ID)
	}
	added, err := m.resolver.NormalizeResources(c)
	if err != nil {
		return nil, fmt.Errorf("normalizing %q: %w", c.Name, err)
	}
	sheet := newSheet(c, m.resolver)
	m.sheets[c.ID] = sheet
	m.logger.Info("character loaded",
		zap.String("id", c.ID.String()),
		zap.String("name", c.Name),
		zap.Int("granted", added),
	)
	return sheet, nil
}

// LoadDirectory adds every character file in dir.
//
// Postcondition: returns the number of characters added; on error, the
// characters added before the failure stay loaded.
func (m *Manager) LoadDirectory(dir string) (int, error) {
	cs, err := character.LoadDirectory(dir)
	if err != nil {
		return 0, err
	}
	for i, c := range cs {
		if _, err := m.Add(c); err != nil {
			return i, err
		}
	}
	return len(cs), nil
}

// Remove stops tracking the character with the given ID.
//
// Postcondition: Returns ErrNotFound if the ID is not loaded.
func (m *Manager) Remove(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sheets[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sheets, id)
	return nil
}

// Get returns the sheet for id.
//
// Postcondition: Returns (sheet, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id uuid.UUID) (*Sheet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sheets[id]
	return s, ok
}

// Lookup resolves a character by ID text or, failing that, by name ignoring
// case.
//
// Postcondition: Returns ErrNotFound when nothing matches and
// ErrAmbiguousName when the name matches more than one character.
func (m *Manager) Lookup(key string) (*Sheet, error) {
	if id, err := uuid.Parse(key); err == nil {
		if s, ok := m.Get(id); ok {
			return s, nil
		}
	}
	m.mu.RLock()
	sheets := make(map[uuid.UUID]*Sheet, len(m.sheets))
	for id, s := range m.sheets {
		sheets[id] = s
	}
	m.mu.RUnlock()

	var (
		match *Sheet
		ids   []string
	)
	for id, s := range sheets {
		if strings.EqualFold(s.Name(), key) {
			match = s
			ids = append(ids, id.String())
		}
	}
	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	case 1:
		return match, nil
	}
	sort.Strings(ids)
	return nil, fmt.Errorf("%w: %q is %s", ErrAmbiguousName, key, strings.Join(ids, ", "))
}

// IDs returns the loaded character IDs in ascending order.
func (m *Manager) IDs() []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(m.sheets))
	for id := range m.sheets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Count returns the number of loaded characters.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sheets)
}
