package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"laundry-coordinator/config"
	"laundry-coordinator/internal/api"
	"laundry-coordinator/internal/audit"
	"laundry-coordinator/internal/clock"
	"laundry-coordinator/internal/db"
	"laundry-coordinator/internal/directory"
	"laundry-coordinator/internal/engine"
	"laundry-coordinator/internal/log"
	"laundry-coordinator/internal/notification"
	"laundry-coordinator/internal/reconcile"
	"laundry-coordinator/internal/registry"
	"laundry-coordinator/internal/store"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP command surface, timers and notification workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := log.WithComponent("laundryd")

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Warn().Msg("VAPID keys are not configured, push delivery will fail")
	}
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)

	machines, err := db.Inventory(cfg.Inventory)
	if err != nil {
		return err
	}
	if err := appStore.UpsertInventory(ctx, machines); err != nil {
		return fmt.Errorf("failed to seed inventory: %w", err)
	}

	reg, err := registry.New(ctx, appStore)
	if err != nil {
		return err
	}
	logger.Info().Int("machines", len(reg.IDs())).Msg("registry loaded")

	identities := directory.New(appStore, time.Minute)
	workers := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.Queue, appStore, &webpushOptions)
	eng := engine.New(reg, clock.Real{}, workers, audit.NewSink(appStore), identities, engine.ConfigFrom(cfg.Engine))
	defer eng.Close()

	g, gctx := errgroup.WithContext(ctx)

	workers.Start(gctx)
	g.Go(func() error {
		workers.Wait()
		return nil
	})

	if _, err := eng.Restore(gctx); err != nil {
		return fmt.Errorf("failed to restore timers: %w", err)
	}

	sweeper := reconcile.New(eng)
	g.Go(func() error {
		sweeper.Run(gctx, cfg.Engine.ReconcileInterval)
		return nil
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(api.NewHandler(eng, appStore, identities, &webpushOptions), cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received, stopping services")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server gracefully stopped")
	return nil
}
