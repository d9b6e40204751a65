// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/stockforecast/internal/api"
	"github.com/andresuchdata/stockforecast/internal/cache"
	"github.com/andresuchdata/stockforecast/internal/config"
	"github.com/andresuchdata/stockforecast/internal/forecast"
	"github.com/andresuchdata/stockforecast/internal/repository/postgres"
	"github.com/andresuchdata/stockforecast/internal/service"
	"github.com/andresuchdata/stockforecast/internal/storage"
	"github.com/andresuchdata/stockforecast/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	productRepo := postgres.NewProductRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, forecasts will not be memoized")
		forecastCache = cache.NewNoopForecastCache()
	}

	var store storage.ObjectStorage
	if cfg.Storage.Enabled {
		store, err = storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, model artifact backup disabled")
			store = nil
		}
	}

	engine := forecast.NewService(cfg.Model.Path,
		forecast.WithLookbackDays(cfg.Model.LookbackDays),
		forecast.WithSeed(cfg.Model.Seed),
	)
	trainer := forecast.NewTrainer(orderRepo, forecast.TrainerConfig{
		LookbackDays:  cfg.Model.LookbackDays,
		SyntheticDays: cfg.Model.SyntheticDays,
		MinRealOrders: cfg.Model.MinRealOrders,
		Seed:          cfg.Model.Seed,
		Parallelism:   cfg.Model.TrainBatchSize,
	})

	forecastService := service.NewStockForecastService(productRepo, orderRepo, engine, trainer, forecastCache, store)

	// Pull the model artifact from object storage when the local copy is
	// missing, so a fresh instance starts with the last trained model.
	if err := forecastService.RestoreArtifact(context.Background()); err != nil {
		logger.Log.Warn().Err(err).Msg("Model artifact restore failed, starting heuristic-only")
	}

	// Initialize HTTP server
	router := api.NewRouter(forecastService, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
