package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type respondentRepository struct {
	db *sql.DB
}

func NewRespondentRepository(db *sql.DB) ports.RespondentRepository {
	return &respondentRepository{
		db: db,
	}
}

// Register inserts the respondent and, in the same transaction, credits the
// referral bonus to whoever owns unit.ReferralCode.
func (r *respondentRepository) Register(ctx context.Context, unit ports.RegistrationUnit) (*domain.Respondent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err, "begin transaction")
	}
	defer tx.Rollback()

	var referrer *domain.Respondent
	if unit.ReferralCode != "" {
		referrer, err = lockReferrer(ctx, tx, unit.ReferralCode)
		if err != nil {
			return nil, err
		}
	}

	p := unit.Respondent
	if referrer != nil {
		p.ReferredBy = &referrer.ID
	}

	var contact sql.NullString
	if p.Contact != "" {
		contact = sql.NullString{String: p.Contact, Valid: true}
	}

	query := `
		INSERT INTO respondents (id, kind, display_name, contact, referral_code, referred_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, query, p.ID, p.Kind, p.DisplayName, contact, p.ReferralCode, p.ReferredBy, p.CreatedAt)
	if err != nil {
		return nil, classify(err, "insert respondent")
	}

	if referrer != nil && unit.Bonus.IsPositive() {
		balance, err := credit(ctx, tx, referrer.ID, unit.Bonus, domain.EntryReferralBonus, p.ID)
		if err != nil {
			return nil, err
		}
		referrer.TotalEarned = referrer.TotalEarned.Add(unit.Bonus)
		referrer.Balance = balance
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err, "commit registration")
	}
	return referrer, nil
}

func lockReferrer(ctx context.Context, tx *sql.Tx, code string) (*domain.Respondent, error) {
	query := `
		SELECT id, kind, display_name, balance, total_earned, referral_code, created_at
		FROM respondents
		WHERE referral_code = $1 AND kind = 'registered'
		FOR UPDATE
	`
	var p domain.Respondent
	err := tx.QueryRowContext(ctx, query, code).Scan(
		&p.ID, &p.Kind, &p.DisplayName, &p.Balance, &p.TotalEarned, &p.ReferralCode, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err, "find referrer")
	}
	return &p, nil
}
