package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

// DefaultReferralBonus is credited to a referrer once per new respondent.
var DefaultReferralBonus = decimal.NewFromInt(100)

type referralService struct {
	repo   ports.RespondentRepository
	bonus  decimal.Decimal
	logger *slog.Logger
}

func NewReferralService(repo ports.RespondentRepository, bonus decimal.Decimal, logger *slog.Logger) ports.ReferralService {
	if !bonus.IsPositive() {
		bonus = DefaultReferralBonus
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &referralService{repo: repo, bonus: bonus, logger: logger}
}

func (s *referralService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Respondent, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", domain.ErrInvalidRespondent)
	}

	code, err := newShareCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate referral code: %w", err)
	}

	respondent := &domain.Respondent{
		ID:           uuid.New(),
		Kind:         domain.RespondentRegistered,
		DisplayName:  name,
		Contact:      strings.ToLower(strings.TrimSpace(input.Contact)),
		Balance:      decimal.Zero,
		TotalEarned:  decimal.Zero,
		ReferralCode: code,
		CreatedAt:    time.Now().UTC(),
	}

	referrer, err := s.repo.Register(ctx, ports.RegistrationUnit{
		Respondent:   respondent,
		ReferralCode: strings.ToUpper(strings.TrimSpace(input.ReferralCode)),
		Bonus:        s.bonus,
	})
	if err != nil {
		return nil, err
	}

	if referrer != nil {
		respondent.ReferredBy = &referrer.ID
		s.logger.InfoContext(ctx, "referral bonus credited",
			"referrer_id", referrer.ID,
			"respondent_id", respondent.ID,
			"bonus", s.bonus.String(),
		)
	}
	return respondent, nil
}
