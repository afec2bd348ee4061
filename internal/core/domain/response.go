package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Response is an append-only record of one respondent's answers to a survey.
type Response struct {
	ID            uuid.UUID       `json:"id"`
	SurveyID      uuid.UUID       `json:"survey_id"`
	RespondentID  uuid.UUID       `json:"respondent_id"`
	Answers       Answers         `json:"answers"`
	SubmittedAt   time.Time       `json:"submitted_at"`
	Timezone      string          `json:"timezone,omitempty"`
	RewardGranted bool            `json:"reward_granted"`
	Reward        decimal.Decimal `json:"reward"`

	// Populated on reads for exports.
	RespondentName    string `json:"respondent_name,omitempty"`
	RespondentContact string `json:"respondent_contact,omitempty"`
}

// Receipt is the outcome of a committed submission.
type Receipt struct {
	ResponseID     uuid.UUID       `json:"response_id"`
	RespondentID   uuid.UUID       `json:"respondent_id"`
	RewardCredited decimal.Decimal `json:"reward_credited"`
	NewBalance     decimal.Decimal `json:"new_balance"`
	SubmittedAt    time.Time       `json:"submitted_at"`
}
