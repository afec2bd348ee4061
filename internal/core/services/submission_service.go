package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

const (
	DefaultMaxAttempts = 3
	outcomeAccepted    = "Accepted"
)

type SubmissionOptions struct {
	MaxAttempts int
	Backoff     time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
	Metrics     ports.Metrics
}

type submissionService struct {
	surveyRepo   ports.SurveyRepository
	responseRepo ports.ResponseRepository
	ledger       ports.ResponseLedger
	checker      *EligibilityChecker

	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
	logger      *slog.Logger
	metrics     ports.Metrics
}

func NewSubmissionService(surveyRepo ports.SurveyRepository, responseRepo ports.ResponseRepository, ledger ports.ResponseLedger, opts SubmissionOptions) ports.SubmissionService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 25 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = ports.NopMetrics{}
	}

	return &submissionService{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		ledger:       ledger,
		checker:      NewEligibilityChecker(opts.Now),
		maxAttempts:  opts.MaxAttempts,
		backoff:      opts.Backoff,
		now:          opts.Now,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
}

func (s *submissionService) Submit(ctx context.Context, input ports.SubmitInput) (*domain.Receipt, error) {
	receipt, err := s.submit(ctx, input)
	if err != nil {
		kind := domain.KindOf(err)
		s.metrics.SubmissionOutcome(kind)
		if domain.IsUserCorrectable(err) {
			s.logger.InfoContext(ctx, "submission rejected", "survey_id", input.SurveyID, "kind", kind)
		} else {
			s.logger.ErrorContext(ctx, "submission failed", "survey_id", input.SurveyID, "kind", kind, "error", err)
		}
		return nil, err
	}

	s.metrics.SubmissionOutcome(outcomeAccepted)
	s.logger.InfoContext(ctx, "submission accepted",
		"survey_id", input.SurveyID,
		"response_id", receipt.ResponseID,
		"reward", receipt.RewardCredited.String(),
	)
	return receipt, nil
}

func (s *submissionService) submit(ctx context.Context, input ports.SubmitInput) (*domain.Receipt, error) {
	input.ShareCode = normalizeShareCode(input.ShareCode)
	if input.Identity.IsRegistered() {
		if input.Identity.ID == uuid.Nil {
			return nil, domain.ErrUnauthenticated
		}
	} else if input.ShareCode == "" {
		return nil, domain.ErrUnauthenticated
	}

	answers, err := NormalizeAnswers(input.Answers)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		receipt, err := s.attempt(ctx, input, answers)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, domain.ErrTransientConflict) {
			return nil, err
		}

		lastErr = err
		s.metrics.LedgerRetry()
		s.logger.WarnContext(ctx, "ledger conflict", "survey_id", input.SurveyID, "attempt", attempt)

		if attempt < s.maxAttempts {
			if err := s.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", domain.ErrTransientConflict, s.maxAttempts, lastErr)
}

// attempt reads a fresh snapshot, runs every check and commits. Each retry
// starts from scratch.
func (s *submissionService) attempt(ctx context.Context, input ports.SubmitInput, answers domain.Answers) (*domain.Receipt, error) {
	survey, err := s.surveyRepo.GetByID(ctx, input.SurveyID)
	if err != nil {
		return nil, err
	}

	if !input.Identity.IsRegistered() && survey.ShareCode != input.ShareCode {
		return nil, domain.ErrUnauthenticated
	}

	responded, err := s.responseRepo.HasResponded(ctx, survey.ID, input.Identity)
	if err != nil {
		return nil, err
	}
	if err := s.checker.Check(survey, responded); err != nil {
		return nil, err
	}
	if err := s.checker.CheckRequired(survey.Questions, answers); err != nil {
		return nil, err
	}

	return s.ledger.Commit(ctx, ports.SubmissionUnit{
		SurveyID:    survey.ID,
		Respondent:  input.Identity,
		Answers:     answers,
		SubmittedAt: s.now().UTC(),
		Timezone:    input.Timezone,
		Guard:       s.checker.Check,
	})
}

func (s *submissionService) wait(ctx context.Context, attempt int) error {
	d := s.backoff*time.Duration(attempt) + rand.N(s.backoff)
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
