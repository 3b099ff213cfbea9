package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/dripstat/internal/api"
	"github.com/mtlprog/dripstat/internal/cache"
	"github.com/mtlprog/dripstat/internal/config"
	"github.com/mtlprog/dripstat/internal/database"
	"github.com/mtlprog/dripstat/internal/estimate"
	"github.com/mtlprog/dripstat/internal/export"
	"github.com/mtlprog/dripstat/internal/portfolio"
	natspub "github.com/mtlprog/dripstat/internal/pubsub/nats"
	"github.com/mtlprog/dripstat/internal/snapshot"
	"github.com/mtlprog/dripstat/internal/subgraph"
	"github.com/mtlprog/dripstat/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP API, live estimator and background workers",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	source, closeSource, err := eventSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	descriptors, err := cfg.StreamDescriptors()
	if err != nil {
		return fmt.Errorf("parsing STREAMS: %w", err)
	}

	holdings := portfolio.New(cfg.OwnerAddress)
	defer holdings.Close()
	portfolioSvc := portfolio.NewService(source, holdings, descriptors)

	estimator := estimate.New(holdings, estimate.WithCycleSecs(cfg.CycleSecs))

	snapshotRepo := snapshot.NewPgRepository(pool)
	snapshotSvc := snapshot.NewService(estimator, snapshotRepo)
	if _, err := snapshotRepo.EnsurePortfolio(ctx, cfg.PortfolioSlug, cfg.OwnerAddress); err != nil {
		return fmt.Errorf("ensuring portfolio: %w", err)
	}

	broadcaster := api.NewBroadcaster(estimator.Latest)
	defer broadcaster.Close()
	estimator.Subscribe(broadcaster.Broadcast)

	if cfg.NATSURL != "" {
		publisher, err := natspub.Connect(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer publisher.Close()
		estimator.Subscribe(publisher.Observe)
	}

	// Populate streams before the first tick so estimates start non-empty.
	if err := portfolioSvc.Refresh(ctx); err != nil {
		slog.Warn("Serve: initial refresh incomplete", "error", err)
	}
	slog.Info("Serve: portfolio loaded", "owner", holdings.Owner(), "streams", holdings.Len(), "configured", len(descriptors))

	ticker := worker.NewTicker(cfg.TickInterval)
	ticker.Register(func(time.Time) { estimator.Tick() })
	go ticker.Run(ctx)

	refreshWorker := worker.NewRefreshWorker(portfolioSvc, cfg.RefreshInterval)
	go refreshWorker.Run(ctx)

	hook, err := exportHook(ctx, cfg)
	if err != nil {
		return err
	}
	reportWorker := worker.NewReportWorker(snapshotSvc, cfg.PortfolioSlug, cfg.ReportInterval, hook)
	go reportWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, generate endpoint is unprotected")
	}

	live := api.NewLiveHandler(estimator, holdings)
	srv := api.NewServer(cfg.HTTPPort, snapshotSvc, cfg.PortfolioSlug, live, broadcaster, cfg.AdminAPIKey)

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	ticker.Stop()

	slog.Info("Shutdown complete")
	return nil
}

// eventSource returns the subgraph client, wrapped in the Redis history cache
// when REDIS_ADDR is set.
func eventSource(ctx context.Context, cfg config.Config) (portfolio.EventSource, func(), error) {
	if cfg.SubgraphURL == "" {
		return nil, nil, errors.New("SUBGRAPH_URL is required")
	}
	client := subgraph.NewClient(cfg.SubgraphURL, cfg.SubgraphRetryMax, cfg.SubgraphRetryBaseDelay)

	if cfg.RedisAddr == "" {
		return client, func() {}, nil
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			slog.Warn("Redis: close failed", "error", err)
		}
	}
	return cache.NewHistoryCache(rdb, client, cfg.RedisHistoryTTL), closeFn, nil
}

// exportHook returns the Google Sheets exporter when configured.
func exportHook(ctx context.Context, cfg config.Config) (worker.AfterStatementHook, error) {
	if cfg.GoogleSheetsID == "" || cfg.GoogleCredentialsJSON == "" {
		slog.Info("Google Sheets export disabled")
		return nil, nil
	}
	writer, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("creating sheets writer: %w", err)
	}
	slog.Info("Google Sheets export enabled")
	return export.NewService(writer), nil
}
