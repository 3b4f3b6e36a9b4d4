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

	"github.com/grocerygrid/backend/config"
	"github.com/grocerygrid/backend/internal/app"
	httpDelivery "github.com/grocerygrid/backend/internal/delivery/http"
	"github.com/grocerygrid/backend/internal/logging"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "grocerygrid-backend",
	})

	logger.Info().
		Str("version", "1.0.0").
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Int("sources", len(cfg.Sources)).
		Msg("starting GroceryGrid backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure and usecase layers
	catalog, err := app.NewCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize catalog")
	}
	defer catalog.Close()

	initialLoad(ctx, catalog, cfg.Catalog.DefaultSource, logger)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(catalog.Service)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// initialLoad populates the catalog at startup. A failed load is logged and
// the server starts with an empty catalog.
func initialLoad(ctx context.Context, catalog *app.Catalog, selection string, logger zerolog.Logger) {
	result, err := catalog.Service.Load(ctx, selection)
	if err != nil {
		logger.Error().Err(err).Str("source", selection).Msg("initial catalog load failed")
		return
	}

	for _, warning := range result.Warnings {
		logger.Warn().Str("warning", warning).Msg("initial catalog load incomplete")
	}
	logger.Info().Str("source", result.Source).Int("products", result.Count).Msg("initial catalog load finished")
}
