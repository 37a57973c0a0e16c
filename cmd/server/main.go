package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dekkerglen/dr4ft/internal/archive"
	"github.com/dekkerglen/dr4ft/internal/config"
	"github.com/dekkerglen/dr4ft/internal/game"
	"github.com/dekkerglen/dr4ft/internal/httpapi"
	"github.com/dekkerglen/dr4ft/internal/pool"
	"github.com/dekkerglen/dr4ft/internal/presence"
	"github.com/dekkerglen/dr4ft/internal/registry"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	catalog := pool.NewCatalog(nil)
	if cfg.SetsFile != "" {
		catalog, err = pool.LoadCatalog(cfg.SetsFile)
		if err != nil {
			logger.Fatal("load set catalog", zap.Error(err))
		}
	}

	var archiver game.Archiver
	if cfg.ArchiveDSN != "" {
		archiver, err = archive.NewGormArchiver(cfg.ArchiveDSN, logger)
	} else {
		archiver, err = archive.NewFileArchiver(cfg.DataDir, logger)
	}
	if err != nil {
		logger.Fatal("init archiver", zap.Error(err))
	}

	hub := presence.NewHub(logger)
	reg := registry.New(logger, hub, pool.NewSupplier(catalog), archiver)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(reg, hub, logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return reg.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server exited", zap.Error(err))
	}
}
