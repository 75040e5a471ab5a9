package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookstore-catalog-api/internal/api"
	"github.com/bookstore-catalog-api/internal/config"
	"github.com/bookstore-catalog-api/internal/database"
	"github.com/bookstore-catalog-api/internal/metrics"
	"github.com/bookstore-catalog-api/internal/repository"
	"github.com/bookstore-catalog-api/internal/service"
	"github.com/bookstore-catalog-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; the environment is used as is
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	log.Info().Msg("Starting Bookstore Catalog API server...")

	gin.SetMode(gin.ReleaseMode)

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	m := metrics.New()
	repos := repository.New(db)
	services := service.NewServices(repos, cfg, m, log)

	// Start background job processor
	processorCtx, stopProcessor := context.WithCancel(context.Background())
	defer stopProcessor()
	go services.Job.StartProcessor(processorCtx)
	log.Info().Int("workers", cfg.Import.JobWorkers).Msg("Background job processor started")

	router := api.NewRouter(services, cfg, m, db, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job processor after in-flight requests have drained
	services.Job.StopProcessor()

	log.Info().Msg("Server exited gracefully")
}
