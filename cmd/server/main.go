package main

import (
	"context"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	rediscache "github.com/vncsmyrnk/surveyengine/internal/adapters/cache/redis"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/export"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/handler/http"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/metrics"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/queue"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/surveyengine/internal/config"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
	"github.com/vncsmyrnk/surveyengine/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger(os.Stderr, "info", "json").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	collector := metrics.NewCollector()

	surveyRepo := postgres.NewSurveyRepository(db)
	responseRepo := postgres.NewResponseRepository(db)

	var (
		cache     ports.AggregateCache
		exportQ   ports.ExportQueue
		scheduler ports.SurveyScheduler
	)
	if cfg.Redis.Enabled() {
		redisClient, err := rediscache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		cache = rediscache.NewAggregateCache(redisClient, "")

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer asynqClient.Close()
		q := queue.NewClient(asynqClient, cfg.QueueName)
		exportQ, scheduler = q, q
	} else {
		logger.Warn("REDIS_ADDR not set, aggregate cache and background jobs are disabled")
	}

	submissionService := services.NewSubmissionService(surveyRepo, responseRepo, postgres.NewResponseLedger(db), services.SubmissionOptions{
		MaxAttempts: cfg.LedgerMaxAttempts,
		Logger:      logger,
		Metrics:     collector,
	})
	surveyService := services.NewSurveyService(surveyRepo, scheduler, logger)
	analyticsService := services.NewAnalyticsService(surveyRepo, responseRepo, cache, services.AnalyticsOptions{
		TTL:     cfg.AggregateCacheTTL,
		Logger:  logger,
		Metrics: collector,
	})
	exportService := services.NewExportService(surveyRepo, responseRepo, export.Renderers(),
		postgres.NewExportJobRepository(db), exportQ, services.ExportOptions{
			Logger:  logger,
			Metrics: collector,
		})
	referralService := services.NewReferralService(postgres.NewRespondentRepository(db), cfg.ReferralBonus, logger)

	limiter := http.NewRateLimiter(cfg.SubmitRatePerMin, cfg.SubmitRateBurst)
	defer limiter.Stop()

	handler := http.NewHandler(http.Handlers{
		Submissions:    http.NewSubmissionHandler(submissionService),
		Surveys:        http.NewSurveyHandler(surveyService),
		Analytics:      http.NewAnalyticsHandler(analyticsService),
		Exports:        http.NewExportHandler(exportService),
		Respondents:    http.NewRespondentHandler(referralService),
		Auth:           http.NewAuth(cfg.JWTSecret),
		SubmitLimiter:  limiter,
		Metrics:        collector,
		MetricsHandler: collector.Handler(),
	})
	server := &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
