package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

const DefaultAggregateTTL = 30 * time.Second

type AnalyticsOptions struct {
	TTL     time.Duration
	Logger  *slog.Logger
	Metrics ports.Metrics
}

type analyticsService struct {
	surveyRepo   ports.SurveyRepository
	responseRepo ports.ResponseRepository
	cache        ports.AggregateCache

	ttl     time.Duration
	logger  *slog.Logger
	metrics ports.Metrics
}

// NewAnalyticsService builds the aggregate read path. cache may be nil.
func NewAnalyticsService(surveyRepo ports.SurveyRepository, responseRepo ports.ResponseRepository, cache ports.AggregateCache, opts AnalyticsOptions) ports.AnalyticsService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultAggregateTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = ports.NopMetrics{}
	}
	return &analyticsService{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		cache:        cache,
		ttl:          opts.TTL,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
}

func (s *analyticsService) Aggregate(ctx context.Context, surveyID uuid.UUID, dateRange domain.DateRange) (*domain.Aggregate, error) {
	key := AggregateCacheKey(surveyID, dateRange)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "aggregate cache read failed", "survey_id", surveyID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	return s.compute(ctx, surveyID, dateRange, key)
}

// Refresh recomputes the unfiltered aggregate and overwrites the cached copy.
func (s *analyticsService) Refresh(ctx context.Context, surveyID uuid.UUID) (*domain.Aggregate, error) {
	return s.compute(ctx, surveyID, domain.DateRange{}, AggregateCacheKey(surveyID, domain.DateRange{}))
}

func (s *analyticsService) compute(ctx context.Context, surveyID uuid.UUID, dateRange domain.DateRange, key string) (*domain.Aggregate, error) {
	start := time.Now()

	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responseRepo.ListBySurvey(ctx, surveyID, dateRange)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	agg := Aggregate(survey, responses)
	s.metrics.AggregationDuration(time.Since(start))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, agg, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "aggregate cache write failed", "survey_id", surveyID, "error", err)
		}
	}
	return agg, nil
}

// AggregateCacheKey identifies one survey and date range in the cache.
func AggregateCacheKey(surveyID uuid.UUID, dateRange domain.DateRange) string {
	return fmt.Sprintf("aggregate:%s:%s:%s", surveyID, dayKey(dateRange.From), dayKey(dateRange.To))
}

func dayKey(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}
