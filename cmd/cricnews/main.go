package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crickwire/cricnews/internal/app"
	"github.com/crickwire/cricnews/internal/config"
	"github.com/crickwire/cricnews/internal/feed"
	"github.com/crickwire/cricnews/internal/logger"
	"github.com/crickwire/cricnews/internal/news"
	"github.com/crickwire/cricnews/internal/newsapi"
	"github.com/crickwire/cricnews/internal/poster"
	"github.com/crickwire/cricnews/internal/retry"
	"github.com/crickwire/cricnews/internal/scheduler"
	"github.com/crickwire/cricnews/internal/scraper"
	"github.com/crickwire/cricnews/internal/server"
	"github.com/crickwire/cricnews/internal/storage"
	"github.com/crickwire/cricnews/internal/telegram"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open article store", "error", err, "type", cfg.Storage.Type)
		os.Exit(1)
	}

	feeds, err := feed.NewFromConfig(cfg.FeedsConfigPath, cfg.NewsMaxAge)
	if err != nil {
		slog.Error("failed to load feed configuration", "error", err, "path", cfg.FeedsConfigPath)
		os.Exit(1)
	}

	var fallback app.Fetcher
	if cfg.NewsAPIKey != "" {
		fallback = newsapi.New(cfg.NewsAPIBaseURL, cfg.NewsAPIKey, cfg.NewsAPIQuery, cfg.RequestTimeout)
	} else {
		slog.Warn("no headlines api key configured, running without a fallback source")
	}

	sender := telegram.NewSender(cfg.TelegramToken, cfg.TelegramChatID, cfg.RequestTimeout, retry.Config{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
	})
	images := scraper.New(cfg.RequestTimeout)

	publisher := poster.New(sender, images, store, cfg.PaceInterval)
	cycle := app.NewCycle(feeds, fallback, store, publisher, news.SelectOptions{
		Target:        cfg.TargetPerRun,
		DomesticQuota: cfg.DomesticQuota,
		WorldQuota:    cfg.WorldQuota,
	})
	cleaner := app.NewCleaner(store, cfg.RetentionWindow)

	sched, err := scheduler.New(cycle, cleaner, scheduler.Config{
		CleanupHourUTC:    cfg.CleanupHourUTC,
		HeartbeatInterval: cfg.HeartbeatInterval,
		DegradedAfter:     cfg.DegradedAfter,
	})
	if err != nil {
		slog.Error("failed to build scheduler", "error", err)
		os.Exit(1)
	}

	if cfg.EnableScheduler {
		sched.Start()
	} else {
		slog.Warn("scheduler disabled, only manual triggers will post")
	}

	srv := server.New(cfg.HTTPPort, sched, store)
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "port", cfg.HTTPPort)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		slog.Error("scheduler shutdown failed", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		slog.Error("store shutdown failed", "error", err)
	}
	slog.Info("shutdown complete")
}
