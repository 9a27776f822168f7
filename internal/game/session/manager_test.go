package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/character"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
)

const testResources = `
class:
  name: Fighter
  hp_per_level: 10
  choices:
    $Level: {kind: level, key: true}
  advancement:
    1: [Shield Block]
---
class feature:
  name: Shield Block
  effects:
    - bonus: {type: circumstance, to: AC, value: 2}
`

func newTestManager(t testing.TB) *Manager {
	t.Helper()
	reg := ruleset.NewRegistry(nil, zap.NewNop())
	rs, err := ruleset.Decode([]byte(testResources))
	require.NoError(t, err)
	require.NoError(t, reg.RegisterAll(rs))
	return NewManager(character.NewResolver(reg, nil, zap.NewNop()), zap.NewNop())
}

func fighter(name string, level int) *character.Character {
	c := character.New(name, "")
	c.AddResource(rref.Typed("Fighter", rref.Class))
	c.SetChoice(rref.New("Fighter"), character.LevelChoice, level)
	return c
}

func TestNewManager_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewManager(nil, zap.NewNop()) })
}

func TestManager_AddNormalizes(t *testing.T) {
	m := newTestManager(t)
	sheet, err := m.Add(fighter("Valeros", 2))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count())
	assert.Contains(t, sheet.Resources(), rref.Typed("Shield Block", rref.ClassFeature))

	ac, err := sheet.Evaluate("AC", "")
	require.NoError(t, err)
	assert.Equal(t, 2, ac.Total())
	hp, err := sheet.Evaluate(ruleset.MaxHP, "")
	require.NoError(t, err)
	assert.Equal(t, 20, hp.Total())
}

func TestManager_AddDuplicate(t *testing.T) {
	m := newTestManager(t)
	c := fighter("Valeros", 1)
	_, err := m.Add(c)
	require.NoError(t, err)
	_, err = m.Add(c)
	assert.Error(t, err)
	assert.Equal(t, 1, m.Count())
}

func TestManager_RemoveAndLookup(t *testing.T) {
	m := newTestManager(t)
	c := fighter("Valeros", 1)
	_, err := m.Add(c)
	require.NoError(t, err)

	s, err := m.Lookup(c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Valeros", s.Name())
	s, err = m.Lookup("valeros")
	require.NoError(t, err)
	assert.Equal(t, c.ID, s.ID())

	require.NoError(t, m.Remove(c.ID))
	_, ok := m.Get(c.ID)
	assert.False(t, ok)
	assert.True(t, errors.Is(m.Remove(c.ID), ErrNotFound))
	_, err = m.Lookup("Valeros")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_LookupDuplicateNames(t *testing.T) {
	m := newTestManager(t)
	first, err := m.Add(fighter("Valeros", 1))
	require.NoError(t, err)
	_, err = m.Add(fighter("valeros", 2))
	require.NoError(t, err)

	_, err = m.Lookup("Valeros")
	assert.ErrorIs(t, err, ErrAmbiguousName)

	s, err := m.Lookup(first.ID().String())
	require.NoError(t, err, "IDs stay unambiguous")
	assert.Equal(t, first, s)
}

func TestManager_LookupDuringUpdate(t *testing.T) {
	m := newTestManager(t)
	sheet, err := m.Add(character.New("Kyra", ""))
	require.NoError(t, err)

	_, err = sheet.Update(func(c *character.Character) error {
		c.Name = "Kyra the Bold"
		found, err := m.Lookup("kyra")
		require.NoError(t, err, "lookup must not wait on the sheet being updated")
		assert.Equal(t, sheet, found)
		return nil
	})
	require.NoError(t, err)

	found, err := m.Lookup("Kyra the Bold")
	require.NoError(t, err)
	assert.Equal(t, sheet, found)
}

func TestSheet_UpdateRenormalizes(t *testing.T) {
	m := newTestManager(t)
	c := character.New("Kyra", "")
	sheet, err := m.Add(c)
	require.NoError(t, err)

	added, err := sheet.Update(func(c *character.Character) error {
		c.AddResource(rref.Typed("Fighter", rref.Class))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	boom := errors.New("boom")
	_, err = sheet.Update(func(*character.Character) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestManager_LoadDirectory_ShippedContent(t *testing.T) {
	reg := ruleset.NewRegistry(nil, zap.NewNop())
	_, err := ruleset.LoadInto(reg, "../../../content/resources")
	require.NoError(t, err)
	m := NewManager(character.NewResolver(reg, nil, zap.NewNop()), zap.NewNop())

	n, err := m.LoadDirectory("../../../content/characters")
	require.NoError(t, err)
	assert.Equal(t, n, m.Count())

	s, err := m.Lookup("Valeros")
	require.NoError(t, err)
	ac, err := s.Evaluate("AC", "")
	require.NoError(t, err)
	assert.Equal(t, 7, ac.Total(), "full plate item bonus and armor specialist")
}

func TestManager_ConcurrentEvaluation(t *testing.T) {
	m := newTestManager(t)
	var sheets []*Sheet
	for i := 0; i < 4; i++ {
		s, err := m.Add(fighter(fmt.Sprintf("Fighter %d", i), i+1))
		require.NoError(t, err)
		sheets = append(sheets, s)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		s := sheets[i%len(sheets)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Evaluate(ruleset.MaxHP, ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// Property: IDs lists every added character exactly once, in order.
func TestProperty_Manager_IDs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := newTestManager(t)
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		want := make(map[uuid.UUID]bool)
		for i := 0; i < n; i++ {
			s, err := m.Add(fighter(fmt.Sprintf("F%d", i), 1))
			if err != nil {
				rt.Fatal(err)
			}
			want[s.ID()] = true
		}
		ids := m.IDs()
		if len(ids) != n {
			rt.Fatalf("want %d ids, got %d", n, len(ids))
		}
		for i, id := range ids {
			if !want[id] {
				rt.Fatalf("unexpected id %s", id)
			}
			if i > 0 && ids[i-1].String() >= id.String() {
				rt.Fatalf("ids out of order at %d", i)
			}
		}
	})
}
