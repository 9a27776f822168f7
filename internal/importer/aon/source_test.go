package aon_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
	"github.com/cory-johannsen/pf2e-sheet/internal/importer/aon"
)

func TestSource_Load(t *testing.T) {
	rs, err := aon.NewSource(zap.NewNop()).Load("testdata")
	require.NoError(t, err)

	var refs []string
	for _, r := range rs {
		refs = append(refs, ruleset.RefOf(r).String())
	}
	// The duplicate Power Attack and the unknown deity are skipped.
	assert.Equal(t, []string{
		"Power Attack [feat]",
		"Power Attack [action]",
		"Sudden Charge [feat]",
		"Sudden Charge [action]",
		"Shield Warden [feat]",
		"Battlefield Surveyor [class feature]",
		"Breastplate [item]",
	}, refs)
}

func TestSource_Load_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spells.json"),
		[]byte(`[{"category": "spell", "name": "Shield", "level": 1}]`), 0644))

	rs, err := aon.NewSource(zap.NewNop()).Load(dir)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "Shield", rs[0].Base().Name)
}

func TestSource_Load_Errors(t *testing.T) {
	src := aon.NewSource(zap.NewNop())

	_, err := src.Load("/nonexistent/dir")
	assert.Error(t, err)

	_, err = src.Load(t.TempDir())
	assert.Error(t, err, "an empty directory yields no resources")

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "broken.json"), []byte(`{`), 0644))
	_, err = src.Load(bad)
	assert.Error(t, err)
}

func TestNewSource_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { aon.NewSource(nil) })
}
