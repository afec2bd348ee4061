package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

// EligibilityGuard re-validates a locked survey snapshot inside the atomic
// unit. alreadyResponded reports whether the resolved respondent has a
// stored response for the survey.
type EligibilityGuard func(survey *domain.Survey, alreadyResponded bool) error

// SubmissionUnit is everything the ledger needs to apply one submission
// atomically.
type SubmissionUnit struct {
	SurveyID    uuid.UUID
	Respondent  domain.RespondentIdentity
	Answers     domain.Answers
	SubmittedAt time.Time
	Timezone    string
	Guard       EligibilityGuard
}

type ResponseLedger interface {
	// Commit inserts the response, increments the survey counter and credits
	// the reward as one unit. Serialization failures surface as
	// domain.ErrTransientConflict.
	Commit(ctx context.Context, unit SubmissionUnit) (*domain.Receipt, error)
}

type ResponseRepository interface {
	HasResponded(ctx context.Context, surveyID uuid.UUID, identity domain.RespondentIdentity) (bool, error)
	ListBySurvey(ctx context.Context, surveyID uuid.UUID, dateRange domain.DateRange) ([]*domain.Response, error)
}

type SubmitInput struct {
	SurveyID  uuid.UUID
	Answers   json.RawMessage
	Identity  domain.RespondentIdentity
	ShareCode string
	Timezone  string
}

type SubmissionService interface {
	Submit(ctx context.Context, input SubmitInput) (*domain.Receipt, error)
}
