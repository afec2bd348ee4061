package services

import (
	"sort"
	"time"

	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

// EligibilityChecker decides whether a submission may proceed against a
// survey snapshot.
type EligibilityChecker struct {
	now func() time.Time
}

func NewEligibilityChecker(now func() time.Time) *EligibilityChecker {
	if now == nil {
		now = time.Now
	}
	return &EligibilityChecker{now: now}
}

// Check runs the shared-state checks in order and stops at the first failure.
// It is also handed to the ledger as the in-transaction guard.
func (c *EligibilityChecker) Check(survey *domain.Survey, alreadyResponded bool) error {
	if survey == nil {
		return domain.ErrSurveyNotFound
	}
	if survey.Status != domain.SurveyActive {
		return domain.ErrSurveyInactive
	}
	if survey.ExpiresAt != nil && c.now().After(*survey.ExpiresAt) {
		return domain.ErrSurveyExpired
	}
	if survey.CurrentRespondents >= survey.MaxRespondents {
		return domain.ErrSurveyFull
	}
	if alreadyResponded {
		return domain.ErrDuplicateResponse
	}
	return nil
}

// CheckRequired returns the first required question, in display order, with
// no non-empty answer.
func (c *EligibilityChecker) CheckRequired(questions []domain.Question, answers domain.Answers) error {
	ordered := make([]domain.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})

	for _, q := range ordered {
		if !q.Required {
			continue
		}
		ans, ok := answers[q.ID.String()]
		if !ok || ans.IsEmpty() {
			return &domain.MissingRequiredAnswerError{QuestionID: q.ID.String()}
		}
	}
	return nil
}
