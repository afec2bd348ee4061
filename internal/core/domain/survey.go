package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SurveyStatus string

const (
	SurveyActive    SurveyStatus = "active"
	SurveyPaused    SurveyStatus = "paused"
	SurveyCompleted SurveyStatus = "completed"
)

func (s SurveyStatus) Valid() bool {
	switch s {
	case SurveyActive, SurveyPaused, SurveyCompleted:
		return true
	}
	return false
}

type Survey struct {
	ID                 uuid.UUID       `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	Reward             decimal.Decimal `json:"reward"`
	MaxRespondents     int             `json:"max_respondents"`
	CurrentRespondents int             `json:"current_respondents"`
	Status             SurveyStatus    `json:"status"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	ShareCode          string          `json:"share_code,omitempty"`
	Questions          []Question      `json:"questions"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Paid reports whether completing the survey earns a reward.
func (s *Survey) Paid() bool {
	return s.Reward.IsPositive()
}

type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionSingleChoice   QuestionType = "single-choice"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionRating         QuestionType = "rating"
	QuestionYesNo          QuestionType = "yes-no"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionSingleChoice, QuestionMultipleChoice, QuestionRating, QuestionYesNo:
		return true
	}
	return false
}

// HasOptions reports whether questions of this type carry an option list.
func (t QuestionType) HasOptions() bool {
	return t != QuestionText
}

type Question struct {
	ID           uuid.UUID    `json:"id"`
	SurveyID     uuid.UUID    `json:"survey_id"`
	Text         string       `json:"text"`
	Type         QuestionType `json:"type"`
	Options      []string     `json:"options,omitempty"`
	Required     bool         `json:"required"`
	DisplayOrder int          `json:"display_order"`
}

// DateRange filters responses by submission date. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}
