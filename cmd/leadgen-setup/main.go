// leadgen-setup prepares the databank for use: it connects to the document
// store, creates the uniqueness indexes the import and contact services rely
// on, and verifies connectivity. Run it once per environment before starting
// anything that writes contacts.
package main

import (
	"context"
	"log"

	"github.com/Vaibhav5418/leadgen-backend/internal/config"
	"github.com/Vaibhav5418/leadgen-backend/internal/db"
	"github.com/Vaibhav5418/leadgen-backend/internal/logger"
)

func main() {
	// Load and validate configuration first (before logger)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Logger)

	logger.Info().
		Str("environment", cfg.Logger.Environment).
		Str("database", cfg.Database.Name).
		Msg("configuration loaded successfully")

	ctx := context.Background()
	database, err := db.NewDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := database.Close(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to close database connection")
		}
	}()

	logger.Info().Msg("database connected successfully")

	if err := database.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to create indexes")
	}
	logger.Info().Msg("indexes ensured")

	healthCtx, cancel := context.WithTimeout(ctx, cfg.Database.HealthTimeout)
	defer cancel()
	if err := database.HealthCheck(healthCtx); err != nil {
		logger.Fatal().Err(err).Msg("health check failed")
	}
	logger.Info().Msg("databank ready")
}
