package main

import (
	"context"
	"flag"
	"os"
	"time"

	rediscache "github.com/vncsmyrnk/surveyengine/internal/adapters/cache/redis"
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

	flag.StringVar(&cfg.Postgres.Host, "db-host", cfg.Postgres.Host, "Database host")
	flag.StringVar(&cfg.Postgres.Port, "db-port", cfg.Postgres.Port, "Database port")
	flag.StringVar(&cfg.Postgres.User, "db-user", cfg.Postgres.User, "Database user")
	flag.StringVar(&cfg.Postgres.Password, "db-pass", cfg.Postgres.Password, "Database password")
	flag.StringVar(&cfg.Postgres.DB, "db-name", cfg.Postgres.DB, "Database name")
	flag.StringVar(&cfg.Redis.Addr, "redis-addr", cfg.Redis.Addr, "Redis address")
	flag.IntVar(&cfg.WarmConcurrency, "concurrency", cfg.WarmConcurrency, "Surveys aggregated in parallel")
	flag.Parse()

	logger := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if !cfg.Redis.Enabled() {
		logger.Error("a redis address is required to warm the aggregate cache")
		os.Exit(1)
	}

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := rediscache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	surveyRepo := postgres.NewSurveyRepository(db)
	analytics := services.NewAnalyticsService(surveyRepo, postgres.NewResponseRepository(db),
		rediscache.NewAggregateCache(redisClient, ""), services.AnalyticsOptions{
			TTL:    cfg.AggregateCacheTTL,
			Logger: logger,
		})
	warmer := services.NewWarmService(surveyRepo, analytics, cfg.WarmConcurrency, logger)

	logger.Info("starting aggregate warm-up")
	if err := warmer.WarmAll(ctx); err != nil {
		logger.Error("aggregate warm-up failed", "error", err)
		os.Exit(1)
	}
	logger.Info("aggregate warm-up completed")
}
