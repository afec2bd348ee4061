package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

const DefaultWarmConcurrency = 8

type warmService struct {
	surveyRepo  ports.SurveyRepository
	analytics   ports.AnalyticsService
	concurrency int
	logger      *slog.Logger
}

func NewWarmService(surveyRepo ports.SurveyRepository, analytics ports.AnalyticsService, concurrency int, logger *slog.Logger) ports.WarmService {
	if concurrency <= 0 {
		concurrency = DefaultWarmConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &warmService{
		surveyRepo:  surveyRepo,
		analytics:   analytics,
		concurrency: concurrency,
		logger:      logger,
	}
}

// WarmAll refreshes the cached aggregate of every active survey.
func (s *warmService) WarmAll(ctx context.Context) error {
	surveys, err := s.surveyRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch active surveys: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, survey := range surveys {
		id := survey.ID
		g.Go(func() error {
			agg, err := s.analytics.Refresh(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to warm survey %s: %w", id, err)
			}
			s.logger.DebugContext(gctx, "aggregate warmed", "survey_id", id, "responses", agg.TotalResponses)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "aggregates warmed", "surveys", len(surveys))
	return nil
}
