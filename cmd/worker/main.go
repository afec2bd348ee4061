package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/export"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/metrics"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/queue"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/surveyengine/internal/config"
	"github.com/vncsmyrnk/surveyengine/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger(os.Stderr, "info", "json").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if !cfg.Redis.Enabled() {
		logger.Error("REDIS_ADDR is required to run the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	surveyRepo := postgres.NewSurveyRepository(db)
	responseRepo := postgres.NewResponseRepository(db)

	// The worker never enqueues, so the export service runs without a queue
	// and the survey service without a scheduler.
	exportService := services.NewExportService(surveyRepo, responseRepo, export.Renderers(),
		postgres.NewExportJobRepository(db), nil, services.ExportOptions{
			Logger:  logger,
			Metrics: metrics.NewCollector(),
		})
	surveyService := services.NewSurveyService(surveyRepo, nil, logger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	server := queue.NewServer(redisOpt, cfg.QueueName, cfg.ExportWorkerConcurrency, logger)
	mux := queue.NewServeMux(queue.NewHandlers(exportService, surveyService, logger))

	if err := server.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}
	logger.Info("worker started", "queue", cfg.QueueName, "concurrency", cfg.ExportWorkerConcurrency)

	<-ctx.Done()
	logger.Info("gracefully shutting down")
	server.Shutdown()
}
