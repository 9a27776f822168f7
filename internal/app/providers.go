// Package app assembles the sheet tools from configuration. Its providers are
// shared by the binaries and composed with google/wire.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/config"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/character"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/session"
	"github.com/cory-johannsen/pf2e-sheet/internal/scripting"
	"github.com/cory-johannsen/pf2e-sheet/internal/sheetserver"
	"github.com/cory-johannsen/pf2e-sheet/internal/storage/postgres"
)

// ProviderSet builds a *sheetserver.Server and its dependencies from a
// config.Config and a *zap.Logger.
var ProviderSet = wire.NewSet(
	ProvideScripts,
	ProvideRegistry,
	character.NewResolver,
	ProvideSessions,
	ProvideSheetServer,
	wire.Bind(new(character.Store), new(*ruleset.Registry)),
	wire.Bind(new(character.ScriptEvaluator), new(*scripting.Manager)),
	wire.Bind(new(sheetserver.Catalog), new(*ruleset.Registry)),
)

// ProvideScripts creates the Lua predicate evaluator and loads the helper
// library from cfg.Content.ScriptsDir when that directory exists.
//
// Postcondition: returns a non-nil Manager or a library compile error.
func ProvideScripts(cfg config.Config, logger *zap.Logger) (*scripting.Manager, error) {
	mgr := scripting.NewManager(cfg.Scripting.InstructionLimit, logger)
	dir := cfg.Content.ScriptsDir
	if dir == "" {
		return mgr, nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Warn("script directory not found, skipping", zap.String("dir", dir))
		return mgr, nil
	}
	if err := mgr.LoadLibrary(dir); err != nil {
		return nil, fmt.Errorf("loading scripts: %w", err)
	}
	logger.Info("script library loaded", zap.String("dir", dir))
	return mgr, nil
}

const databaseHealthTimeout = 5 * time.Second

// ProvideRegistry loads cfg.Content.ResourcesDir into a new Registry. When
// the database is enabled, it backs the registry for resources missing from
// the content directory; the returned cleanup closes its pool.
//
// Postcondition: returns a populated Registry or a non-nil error.
func ProvideRegistry(ctx context.Context, cfg config.Config, logger *zap.Logger) (*ruleset.Registry, func(), error) {
	var (
		src     ruleset.Source
		cleanup = func() {}
	)
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.Health(ctx, databaseHealthTimeout); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("checking database: %w", err)
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		src = pool.Resources()
		cleanup = pool.Close
	}

	start := time.Now()
	reg := ruleset.NewRegistry(src, logger)
	n, err := ruleset.LoadInto(reg, cfg.Content.ResourcesDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("loading resources: %w", err)
	}
	logger.Info("resources loaded",
		zap.String("dir", cfg.Content.ResourcesDir),
		zap.Int("count", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reg, cleanup, nil
}

// ProvideSessions loads every character in cfg.Content.CharactersDir.
func ProvideSessions(resolver *character.Resolver, cfg config.Config, logger *zap.Logger) (*session.Manager, error) {
	mgr := session.NewManager(resolver, logger)
	n, err := mgr.LoadDirectory(cfg.Content.CharactersDir)
	if err != nil {
		return nil, fmt.Errorf("loading characters: %w", err)
	}
	logger.Info("characters loaded", zap.String("dir", cfg.Content.CharactersDir), zap.Int("count", n))
	return mgr, nil
}

// ProvideSheetServer creates the gRPC sheet service implementation.
func ProvideSheetServer(sessions *session.Manager, catalog sheetserver.Catalog, cfg config.Config, logger *zap.Logger) *sheetserver.Server {
	return sheetserver.NewServer(sessions, catalog, cfg.SheetServer.FetchTimeout, logger)
}
