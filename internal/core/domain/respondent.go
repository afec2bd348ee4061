package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RespondentKind string

const (
	RespondentRegistered RespondentKind = "registered"
	RespondentEphemeral  RespondentKind = "ephemeral"
)

type Respondent struct {
	ID           uuid.UUID       `json:"id"`
	Kind         RespondentKind  `json:"kind"`
	DisplayName  string          `json:"display_name"`
	Contact      string          `json:"contact,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	TotalEarned  decimal.Decimal `json:"total_earned"`
	ReferralCode string          `json:"referral_code,omitempty"`
	ReferredBy   *uuid.UUID      `json:"referred_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RespondentIdentity is who is submitting: an authenticated respondent, or an
// anonymous share-link visitor that is materialized as an ephemeral record.
type RespondentIdentity struct {
	Kind        RespondentKind
	ID          uuid.UUID
	Contact     string
	DisplayName string
}

func Registered(id uuid.UUID) RespondentIdentity {
	return RespondentIdentity{Kind: RespondentRegistered, ID: id}
}

func Ephemeral(contact, displayName string) RespondentIdentity {
	return RespondentIdentity{Kind: RespondentEphemeral, Contact: contact, DisplayName: displayName}
}

func (i RespondentIdentity) IsRegistered() bool {
	return i.Kind == RespondentRegistered
}

type BalanceEntryKind string

const (
	EntrySurveyReward  BalanceEntryKind = "survey_reward"
	EntryReferralBonus BalanceEntryKind = "referral_bonus"
)
