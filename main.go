package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/api"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/database"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/scheduler"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger := newLogger(cfg)

	// Initialize database
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize admin user
	if err := database.InitializeAdminUser(db, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize admin user")
	}

	// Initialize scheduler if enabled
	if cfg.EnableScheduler {
		scheduler.InitScheduler(db, cfg, logger)
	}

	// Initialize and start API server
	router := api.SetupRouter(db, cfg, logger)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info().Msgf("Starting server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// newLogger builds the process logger: console output for development, JSON
// for production.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.AppEnv == "production" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
