package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/quizhive/mimir/internal/api"
	"github.com/quizhive/mimir/internal/config"
	"github.com/quizhive/mimir/internal/configs/env"
	"github.com/quizhive/mimir/internal/dedup"
	"github.com/quizhive/mimir/internal/infra/mongo"
	redisInfra "github.com/quizhive/mimir/internal/infra/redis"
	"github.com/quizhive/mimir/internal/logger"
	"github.com/quizhive/mimir/internal/metrics"
	"github.com/quizhive/mimir/internal/quiz"
	"github.com/quizhive/mimir/internal/repository"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel)
	log.Info().Msg("Starting mimir server")

	// Initialize Prometheus metrics
	metrics.InitPrometheus()
	log.Info().Msg("Prometheus metrics initialized")

	// Start metrics server in separate goroutine
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}
	go func() {
		log.Info().Str("port", cfg.MetricsPort).Msg("Metrics server started")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Metrics server failed to start")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect MongoDB
	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB client")
	}
	defer mongoClient.Close(ctx)

	// Connect Redis
	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	// Initialize MongoDB repository
	mongoRepo := repository.NewMongoRepository(mongoClient)

	// Initialize repositories and their indexes. The unique (userId,
	// digest) index on uploads is load-bearing for correctness, so index
	// bootstrap failures are fatal.
	questionsRepo := repository.NewQuestionsRepository(mongoRepo)
	uploadsRepo := repository.NewUploadsRepository(mongoRepo)

	indexCtx, indexCancel := context.WithTimeout(ctx, 30*time.Second)
	defer indexCancel()
	if err := questionsRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create questions indexes")
	}
	if err := uploadsRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create uploads indexes")
	}

	// Initialize worker pool for import fingerprinting
	workerPool := dedup.NewWorkerPool(ctx)
	defer workerPool.Close()

	// Initialize import status tracker
	tracker := dedup.NewStatusTracker(redisClient, cfg.ImportStatusTTL)

	// Initialize the duplicate-aware question service
	svc := quiz.NewService(questionsRepo, uploadsRepo, tracker, workerPool)

	router := api.SetupRoutes(cfg, svc)

	// Start Gin server
	srv := api.StartServer(router, cfg.ServerPort)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	// Shutdown Gin server gracefully
	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down HTTP server")
	}

	// Shutdown metrics server gracefully
	metricsCtx, metricsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer metricsCancel()
	if err := metricsServer.Shutdown(metricsCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}
