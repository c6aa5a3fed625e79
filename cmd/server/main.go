/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the stock engine server. Handles configuration,
  dependency injection, snapshot restore/save, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (app.env + environment variables)
  2. Initialize structured logger
  3. Open SQLite snapshot store and restore the last snapshot
  4. Create the sale engine and API handler
  5. Start the low-stock watcher
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the low-stock watcher
  4. Save a final snapshot
  5. Close the snapshot store
  6. Exit

CONFIGURATION:
  ENV            development|production  (development = console logs)
  LOG_LEVEL      trace|debug|info|warn|error
  HTTP_ADDR      listen address (default :8080)
  SNAPSHOT_PATH  SQLite path, ":memory:" for ephemeral state
  API_KEY        enables API-key auth when non-empty
  WATCH_INTERVAL low-stock scan interval (e.g. 30s, 1m)

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Snapshot persistence
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweetcraft/stock-engine/api"
	"github.com/sweetcraft/stock-engine/engine"
	"github.com/sweetcraft/stock-engine/pkg/config"
	"github.com/sweetcraft/stock-engine/pkg/logger"
	"github.com/sweetcraft/stock-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})

	store, err := sqlite.New(cfg.SnapshotPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open snapshot store")
	}
	defer store.Close()

	eng := engine.NewSaleEngine(log)
	if snap, ok, err := store.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load snapshot")
	} else if ok {
		eng.RestoreSnapshot(snap)
	}

	handler := api.NewHandler(eng, store, log)

	var auth api.Authenticator = api.NoAuth{}
	if cfg.APIKey != "" {
		auth = api.APIKeyAuth{Key: cfg.APIKey}
	}
	router := api.NewRouter(handler, auth)

	watcher := api.NewLowStockWatcher(eng, log)
	if interval, err := time.ParseDuration(cfg.WatchInterval); err == nil {
		watcher.CheckInterval = interval
	} else {
		log.Warn().Str("value", cfg.WatchInterval).Msg("bad WATCH_INTERVAL, using default")
	}
	watcher.Start()

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	watcher.Stop()

	if err := store.Save(ctx, eng.Snapshot()); err != nil {
		log.Error().Err(err).Msg("failed to save final snapshot")
	} else {
		log.Info().Msg("final snapshot saved")
	}

	log.Info().Msg("server stopped")
}
