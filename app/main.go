package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-publish/app/api"
	"github.com/lysyi3m/rss-publish/app/cfg"
	"github.com/lysyi3m/rss-publish/app/database"
	"github.com/lysyi3m/rss-publish/app/export"
	"github.com/lysyi3m/rss-publish/app/feed"
	"github.com/lysyi3m/rss-publish/app/reconcile"
	"github.com/lysyi3m/rss-publish/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting RSS Publish server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := database.NewStore(db)
	if err := store.Init(context.Background()); err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath)

	fetcher := feed.NewFetcher(&http.Client{}, feed.NewParser(), appCfg.UserAgent, appCfg.GetFetchTimeout())
	engine := reconcile.NewEngine(store, fetcher)
	exporter := export.NewExporter(store)
	generator := feed.NewGenerator(appCfg.PublicBaseUrl(), appCfg.Version)

	subscriptions := feed.NewSubscriptionCache(appCfg.FeedsDir)
	if err := subscriptions.Run(); err != nil {
		slog.Error("Failed to load subscription files", "dir", appCfg.FeedsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Subscription files loaded", "dir", appCfg.FeedsDir, "count", subscriptions.GetSubscriptionCount())

	scheduler := tasks.NewScheduler(subscriptions, engine, appCfg.GetRefreshInterval())
	scheduler.Start()
	slog.Info("Scheduler started", "refresh_interval", appCfg.GetRefreshInterval().String())

	handler := api.NewHandler(store, engine, exporter, generator, fetcher)
	router := api.NewServer(handler, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "public_feed", generator.PublicFeedURL())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	slog.Info("RSS Publish server shutdown complete")
}
