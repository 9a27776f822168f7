// Package main serves loaded character sheets over gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/config"
	"github.com/cory-johannsen/pf2e-sheet/internal/observability"
	"github.com/cory-johannsen/pf2e-sheet/internal/server"
	"github.com/cory-johannsen/pf2e-sheet/internal/sheetserver"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty uses defaults and SHEET_* environment")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.Server.Name)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting sheet server", zap.String("grpc_addr", cfg.SheetServer.Addr()))

	lifecycle, cleanup, err := initializeLifecycle(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing sheet server", zap.Error(err))
	}
	defer cleanup()

	logger.Info("sheet server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.SheetServer.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("sheet server exited", zap.Error(err))
	}
}

// provideLifecycle serves srv on the configured address until shutdown.
func provideLifecycle(cfg config.Config, logger *zap.Logger, srv *sheetserver.Server) *server.Lifecycle {
	grpcServer, healthServer := sheetserver.NewGRPCServer(srv)

	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)
	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.SheetServer.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.SheetServer.Addr(), err)
			}
			logger.Info("gRPC server listening",
				zap.String("addr", lis.Addr().String()),
			)
			return grpcServer.Serve(lis)
		},
		StopFn: func() {
			healthServer.Shutdown()
			grpcServer.GracefulStop()
		},
	})
	return lifecycle
}
