package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

const shareCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	defaultRatingOptions = []string{"1", "2", "3", "4", "5"}
	defaultYesNoOptions  = []string{"Yes", "No"}
)

type surveyService struct {
	repo      ports.SurveyRepository
	scheduler ports.SurveyScheduler
	logger    *slog.Logger
}

// NewSurveyService builds the survey storage service. scheduler may be nil,
// in which case expiring surveys are only rejected at submission time.
func NewSurveyService(repo ports.SurveyRepository, scheduler ports.SurveyScheduler, logger *slog.Logger) ports.SurveyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &surveyService{
		repo:      repo,
		scheduler: scheduler,
		logger:    logger,
	}
}

func (s *surveyService) Create(ctx context.Context, input ports.CreateSurveyInput) (*domain.Survey, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidSurvey)
	}
	if input.Reward.IsNegative() {
		return nil, fmt.Errorf("%w: reward must not be negative", domain.ErrInvalidSurvey)
	}
	if input.MaxRespondents <= 0 {
		return nil, fmt.Errorf("%w: max respondents must be positive", domain.ErrInvalidSurvey)
	}
	if len(input.Questions) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", domain.ErrInvalidSurvey)
	}

	surveyID := uuid.New()
	now := time.Now().UTC()

	code, err := newShareCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate share code: %w", err)
	}

	survey := &domain.Survey{
		ID:             surveyID,
		Title:          title,
		Description:    input.Description,
		Reward:         input.Reward.Round(2),
		MaxRespondents: input.MaxRespondents,
		Status:         domain.SurveyActive,
		ExpiresAt:      input.ExpiresAt,
		ShareCode:      code,
		CreatedAt:      now,
	}

	orders := make(map[int]bool, len(input.Questions))
	for i, qi := range input.Questions {
		q, err := buildQuestion(surveyID, qi)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", domain.ErrInvalidSurvey, i+1, err)
		}
		if orders[q.DisplayOrder] {
			return nil, fmt.Errorf("%w: duplicate display order %d", domain.ErrInvalidSurvey, q.DisplayOrder)
		}
		orders[q.DisplayOrder] = true
		survey.Questions = append(survey.Questions, q)
	}

	if err := s.repo.Save(ctx, survey); err != nil {
		return nil, err
	}

	if survey.ExpiresAt != nil && s.scheduler != nil {
		if err := s.scheduler.ScheduleClose(ctx, survey.ID, *survey.ExpiresAt); err != nil {
			// Expiry is still enforced on submission.
			s.logger.WarnContext(ctx, "failed to schedule survey close", "survey_id", survey.ID, "error", err)
		}
	}

	return survey, nil
}

func buildQuestion(surveyID uuid.UUID, in ports.CreateQuestionInput) (domain.Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return domain.Question{}, fmt.Errorf("text is required")
	}
	if !in.Type.Valid() {
		return domain.Question{}, fmt.Errorf("unknown type %q", in.Type)
	}

	var options []string
	for _, o := range in.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}

	switch in.Type {
	case domain.QuestionText:
		if len(options) > 0 {
			return domain.Question{}, fmt.Errorf("text questions take no options")
		}
	case domain.QuestionRating:
		if len(options) == 0 {
			options = defaultRatingOptions
		}
	case domain.QuestionYesNo:
		if len(options) == 0 {
			options = defaultYesNoOptions
		}
	default:
		if len(options) == 0 {
			return domain.Question{}, fmt.Errorf("%s questions need options", in.Type)
		}
	}

	return domain.Question{
		ID:           uuid.New(),
		SurveyID:     surveyID,
		Text:         text,
		Type:         in.Type,
		Options:      options,
		Required:     in.Required,
		DisplayOrder: in.DisplayOrder,
	}, nil
}

func (s *surveyService) GetSurvey(ctx context.Context, id string) (*domain.Survey, error) {
	surveyID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrInvalidSurveyID
	}

	return s.repo.GetByID(ctx, surveyID)
}

func (s *surveyService) GetByShareCode(ctx context.Context, code string) (*domain.Survey, error) {
	code = normalizeShareCode(code)
	if code == "" {
		return nil, domain.ErrSurveyNotFound
	}
	return s.repo.GetByShareCode(ctx, code)
}

func (s *surveyService) SetStatus(ctx context.Context, id uuid.UUID, status domain.SurveyStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidSurvey, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// normalizeShareCode accepts codes the way people retype them.
func normalizeShareCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func newShareCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = shareCodeAlphabet[int(b)%len(shareCodeAlphabet)]
	}
	return string(buf), nil
}
