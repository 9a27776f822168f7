package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/app"
	"github.com/cory-johannsen/pf2e-sheet/internal/config"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/character"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
)

func shippedConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Content.ResourcesDir = "../../content/resources"
	cfg.Content.CharactersDir = "../../content/characters"
	cfg.Content.ScriptsDir = "../../content/scripts"
	return cfg
}

func TestProviders_ShippedContent(t *testing.T) {
	cfg := shippedConfig(t)
	logger := zap.NewNop()

	scripts, err := app.ProvideScripts(cfg, logger)
	require.NoError(t, err)
	reg, cleanup, err := app.ProvideRegistry(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer cleanup()
	_, ok := reg.LookupImmediate(rref.Typed("Fighter", rref.Class))
	assert.True(t, ok)

	sessions, err := app.ProvideSessions(character.NewResolver(reg, scripts, logger), cfg, logger)
	require.NoError(t, err)
	assert.Positive(t, sessions.Count())

	sheet, err := sessions.Lookup("Valeros")
	require.NoError(t, err)
	hp, err := sheet.Evaluate("Max HP", "")
	require.NoError(t, err)
	assert.Positive(t, hp.Total())

	assert.NotNil(t, app.ProvideSheetServer(sessions, reg, cfg, logger))
}

func TestProvideScripts_MissingDirIsSkipped(t *testing.T) {
	cfg := shippedConfig(t)
	cfg.Content.ScriptsDir = t.TempDir() + "/absent"
	mgr, err := app.ProvideScripts(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestProvideRegistry_MissingResources(t *testing.T) {
	cfg := shippedConfig(t)
	cfg.Content.ResourcesDir = "/nonexistent/dir"
	_, _, err := app.ProvideRegistry(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestProvideSessions_MissingCharacters(t *testing.T) {
	cfg := shippedConfig(t)
	cfg.Content.CharactersDir = "/nonexistent/dir"
	reg, cleanup, err := app.ProvideRegistry(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	_, err = app.ProvideSessions(character.NewResolver(reg, nil, zap.NewNop()), cfg, zap.NewNop())
	assert.Error(t, err)
}
