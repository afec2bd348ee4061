package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

// AggregateCache holds recently computed aggregates. A miss is (nil, nil).
type AggregateCache interface {
	Get(ctx context.Context, key string) (*domain.Aggregate, error)
	Set(ctx context.Context, key string, agg *domain.Aggregate, ttl time.Duration) error
}

type AnalyticsService interface {
	Aggregate(ctx context.Context, surveyID uuid.UUID, dateRange domain.DateRange) (*domain.Aggregate, error)
	Refresh(ctx context.Context, surveyID uuid.UUID) (*domain.Aggregate, error)
}

type WarmService interface {
	WarmAll(ctx context.Context) error
}
