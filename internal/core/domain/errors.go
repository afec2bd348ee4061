package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedAnswerPayload = errors.New("malformed answer payload")
	ErrSurveyNotFound         = errors.New("survey not found")
	ErrSurveyInactive         = errors.New("survey is not active")
	ErrSurveyExpired          = errors.New("survey has expired")
	ErrSurveyFull             = errors.New("survey has reached its respondent limit")
	ErrDuplicateResponse      = errors.New("respondent has already answered this survey")
	ErrMissingRequiredAnswer  = errors.New("required question was not answered")
	ErrTransientConflict      = errors.New("concurrent submission conflict, retry later")
	ErrPersistenceFailure     = errors.New("storage unavailable")

	ErrUnauthenticated    = errors.New("authentication or a valid share code is required")
	ErrRespondentNotFound = errors.New("respondent not found")
	ErrInvalidSurvey      = errors.New("invalid survey definition")
	ErrExportJobNotFound  = errors.New("export job not found")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrInvalidSurveyID    = errors.New("invalid survey id")
	ErrInvalidRespondent  = errors.New("invalid respondent")
	ErrQueueUnavailable   = errors.New("background export queue is not configured")
)

// MissingRequiredAnswerError names the first required question left empty.
type MissingRequiredAnswerError struct {
	QuestionID string
}

func (e *MissingRequiredAnswerError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingRequiredAnswer, e.QuestionID)
}

func (e *MissingRequiredAnswerError) Is(target error) bool {
	return target == ErrMissingRequiredAnswer
}

// Error kinds as surfaced to callers in { kind, detail } bodies.
const (
	KindMalformedAnswerPayload = "MalformedAnswerPayload"
	KindSurveyNotFound         = "SurveyNotFound"
	KindSurveyInactive         = "SurveyInactive"
	KindSurveyExpired          = "SurveyExpired"
	KindSurveyFull             = "SurveyFull"
	KindDuplicateResponse      = "DuplicateResponse"
	KindMissingRequiredAnswer  = "MissingRequiredAnswer"
	KindTransientConflict      = "TransientConflict"
	KindPersistenceFailure     = "PersistenceFailure"
	KindUnauthenticated        = "Unauthenticated"
	KindRespondentNotFound     = "RespondentNotFound"
	KindValidationFailed       = "ValidationFailed"
	KindNotFound               = "NotFound"
	KindUnavailable            = "Unavailable"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrMalformedAnswerPayload, KindMalformedAnswerPayload},
	{ErrSurveyNotFound, KindSurveyNotFound},
	{ErrSurveyInactive, KindSurveyInactive},
	{ErrSurveyExpired, KindSurveyExpired},
	{ErrSurveyFull, KindSurveyFull},
	{ErrDuplicateResponse, KindDuplicateResponse},
	{ErrMissingRequiredAnswer, KindMissingRequiredAnswer},
	{ErrTransientConflict, KindTransientConflict},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrRespondentNotFound, KindRespondentNotFound},
	{ErrInvalidSurvey, KindValidationFailed},
	{ErrInvalidSurveyID, KindValidationFailed},
	{ErrInvalidRespondent, KindValidationFailed},
	{ErrUnsupportedFormat, KindValidationFailed},
	{ErrExportJobNotFound, KindNotFound},
	{ErrQueueUnavailable, KindUnavailable},
}

// KindOf maps err onto the error taxonomy. Anything unrecognised is a
// persistence failure.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindPersistenceFailure
}

// IsUserCorrectable reports whether err is a recoverable, caller-side error
// that is surfaced verbatim and never retried by the engine.
func IsUserCorrectable(err error) bool {
	switch KindOf(err) {
	case KindTransientConflict, KindPersistenceFailure, KindUnavailable:
		return false
	}
	return true
}
