package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"

	constraintSurveyRespondent = "responses_survey_respondent_key"
	constraintSurveyCapacity   = "surveys_capacity_check"
)

// classify maps driver errors onto the domain taxonomy. Anything it does not
// recognise becomes a persistence failure.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("failed to %s: %w", op, domain.ErrTransientConflict)
		case codeUniqueViolation:
			if pqErr.Constraint == constraintSurveyRespondent {
				return domain.ErrDuplicateResponse
			}
		case codeCheckViolation:
			if pqErr.Constraint == constraintSurveyCapacity {
				return domain.ErrSurveyFull
			}
		}
	}

	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrPersistenceFailure, err)
}
