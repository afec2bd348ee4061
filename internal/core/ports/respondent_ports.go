package ports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

// RegistrationUnit creates a respondent and, when ReferralCode names an
// existing respondent, credits Bonus to that referrer in the same unit.
type RegistrationUnit struct {
	Respondent   *domain.Respondent
	ReferralCode string
	Bonus        decimal.Decimal
}

type RespondentRepository interface {
	Register(ctx context.Context, unit RegistrationUnit) (referrer *domain.Respondent, err error)
}

type RegisterInput struct {
	DisplayName  string
	Contact      string
	ReferralCode string
}

type ReferralService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Respondent, error)
}
