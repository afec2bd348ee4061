package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

type SurveyRepository interface {
	Save(ctx context.Context, survey *domain.Survey) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Survey, error)
	GetByShareCode(ctx context.Context, code string) (*domain.Survey, error)
	ListActive(ctx context.Context) ([]*domain.Survey, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SurveyStatus) error
}

type CreateQuestionInput struct {
	Text         string
	Type         domain.QuestionType
	Options      []string
	Required     bool
	DisplayOrder int
}

type CreateSurveyInput struct {
	Title          string
	Description    string
	Reward         decimal.Decimal
	MaxRespondents int
	ExpiresAt      *time.Time
	Questions      []CreateQuestionInput
}

type SurveyService interface {
	Create(ctx context.Context, input CreateSurveyInput) (*domain.Survey, error)
	GetSurvey(ctx context.Context, id string) (*domain.Survey, error)
	GetByShareCode(ctx context.Context, code string) (*domain.Survey, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.SurveyStatus) error
}

// SurveyScheduler arranges for a survey to be closed once it expires.
type SurveyScheduler interface {
	ScheduleClose(ctx context.Context, surveyID uuid.UUID, at time.Time) error
}
