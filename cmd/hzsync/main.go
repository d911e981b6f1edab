// main is the entry point of the hzsync application.
// It initializes the configuration, logger, database, identity resolver,
// RCON manager and save pipeline, then starts the poll loops and the
// optional status API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hztools/hzsync/internal/config"
	"github.com/hztools/hzsync/internal/fake"
	"github.com/hztools/hzsync/internal/identity"
	"github.com/hztools/hzsync/internal/logger"
	"github.com/hztools/hzsync/internal/maintenance"
	"github.com/hztools/hzsync/internal/poller"
	"github.com/hztools/hzsync/internal/rcon"
	"github.com/hztools/hzsync/internal/save"
	"github.com/hztools/hzsync/internal/server"
	"github.com/hztools/hzsync/internal/storage"
	"github.com/hztools/hzsync/internal/tasks"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Msg("Starting hzsync service...")

	// Database
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// data generation or database maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(cfg, store) {
		return
	}

	// Identity resolver with a best-effort bulk import on startup
	resolver := identity.NewResolver(store)
	if n, err := resolver.ImportMappedFile(cfg.Identity.MappedFilePath()); err == nil {
		log.Info().Int("imported", n).Msg("Mapped identity file imported")
	}
	if n, err := resolver.ImportConnectedLog(cfg.Identity.ConnectedLog); err == nil {
		log.Info().Int("imported", n).Msg("Connected log imported")
	}
	log.Info().Int("known", resolver.Known()).Msg("Identity resolver ready")

	manager := rcon.NewManager(cfg.RCON)
	pipeline := save.NewPipeline(store, cfg.Save)

	pool := tasks.NewPool(context.Background())

	// Prime save data before the first scheduled interval
	if pipeline.ShouldRefresh() {
		pool.Go("startup-parse", func(ctx context.Context) {
			if err := pipeline.Parse(ctx); err != nil {
				log.Error().Err(err).Msg("Startup save parse failed")
			}
		})
	}

	poll := poller.New(cfg, manager, resolver, pipeline, store, pool)
	pool.Go("status-poll", poll.Run)

	var httpServer *http.Server
	switch {
	case cfg.API.Address == "":
		log.Info().Msg("Status API disabled")
	case cfg.API.AuthToken == "":
		log.Warn().Msg("Status API disabled: no auth token configured")
	default:
		srv := server.New(store, pipeline, poll, resolver, manager, pool, cfg.API.AuthToken, cfg.Identity.ConnectedLog)
		httpServer = &http.Server{
			Addr:         cfg.API.Address,
			Handler:      srv.Run(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info().Str("address", cfg.API.Address).Msg("Status API listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("Status API failed")
			}
		}()
	}

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Status API forced to shutdown")
		}
	}

	pool.Shutdown()
	manager.Close()

	log.Info().Msg("Service exited")
}
