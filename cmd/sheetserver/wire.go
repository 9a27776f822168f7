//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/app"
	"github.com/cory-johannsen/pf2e-sheet/internal/config"
	"github.com/cory-johannsen/pf2e-sheet/internal/server"
)

func initializeLifecycle(ctx context.Context, cfg config.Config, logger *zap.Logger) (*server.Lifecycle, func(), error) {
	wire.Build(app.ProviderSet, provideLifecycle)
	return nil, nil, nil
}
