package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type responseLedger struct {
	db *sql.DB
}

// NewResponseLedger returns the ledger that applies a submission as one
// serializable transaction.
func NewResponseLedger(db *sql.DB) ports.ResponseLedger {
	return &responseLedger{
		db: db,
	}
}

type ledgerRespondent struct {
	id      uuid.UUID
	kind    domain.RespondentKind
	balance decimal.Decimal
}

func (l *responseLedger) Commit(ctx context.Context, unit ports.SubmissionUnit) (*domain.Receipt, error) {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, classify(err, "begin transaction")
	}
	defer tx.Rollback()

	survey, err := lockSurvey(ctx, tx, unit.SurveyID)
	if err != nil {
		return nil, err
	}

	respondent, err := resolveRespondent(ctx, tx, unit.Respondent)
	if err != nil {
		return nil, err
	}

	responded := false
	if respondent != nil {
		query := `SELECT EXISTS (SELECT 1 FROM responses WHERE survey_id = $1 AND respondent_id = $2)`
		if err := tx.QueryRowContext(ctx, query, survey.ID, respondent.id).Scan(&responded); err != nil {
			return nil, classify(err, "check existing response")
		}
	}

	if unit.Guard != nil {
		if err := unit.Guard(survey, responded); err != nil {
			return nil, err
		}
	}

	if respondent == nil {
		respondent, err = insertEphemeral(ctx, tx, unit.Respondent)
		if err != nil {
			return nil, err
		}
	}

	// Only authenticated respondents earn rewards; a contact match on the
	// anonymous path never does.
	reward := decimal.Zero
	if survey.Paid() && unit.Respondent.IsRegistered() && respondent.kind == domain.RespondentRegistered {
		reward = survey.Reward
	}

	responseID := uuid.New()
	queryResponse := `
		INSERT INTO responses (id, survey_id, respondent_id, answers, submitted_at, timezone, reward_granted, reward)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, queryResponse,
		responseID, survey.ID, respondent.id, unit.Answers, unit.SubmittedAt, unit.Timezone,
		reward.IsPositive(), reward,
	)
	if err != nil {
		return nil, classify(err, "insert response")
	}

	_, err = tx.ExecContext(ctx, `UPDATE surveys SET current_respondents = current_respondents + 1 WHERE id = $1`, survey.ID)
	if err != nil {
		return nil, classify(err, "increment respondent count")
	}

	// The anonymous path never sees the balance of a record it matched by contact.
	balance := decimal.Zero
	if unit.Respondent.IsRegistered() {
		balance = respondent.balance
	}
	if reward.IsPositive() {
		balance, err = credit(ctx, tx, respondent.id, reward, domain.EntrySurveyReward, responseID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err, "commit submission")
	}

	return &domain.Receipt{
		ResponseID:     responseID,
		RespondentID:   respondent.id,
		RewardCredited: reward,
		NewBalance:     balance,
		SubmittedAt:    unit.SubmittedAt,
	}, nil
}

func lockSurvey(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE id = $1 FOR UPDATE`
	survey, err := scanSurvey(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSurveyNotFound
		}
		return nil, classify(err, "lock survey")
	}
	return survey, nil
}

// resolveRespondent returns nil when an anonymous identity has no stored
// record yet.
func resolveRespondent(ctx context.Context, tx *sql.Tx, identity domain.RespondentIdentity) (*ledgerRespondent, error) {
	var row *sql.Row
	switch {
	case identity.IsRegistered():
		row = tx.QueryRowContext(ctx, `SELECT id, kind, balance FROM respondents WHERE id = $1 FOR UPDATE`, identity.ID)
	case identity.Contact != "":
		query := `
			SELECT id, kind, balance FROM respondents
			WHERE LOWER(contact) = LOWER($1)
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE
		`
		row = tx.QueryRowContext(ctx, query, identity.Contact)
	default:
		return nil, nil
	}

	var r ledgerRespondent
	if err := row.Scan(&r.id, &r.kind, &r.balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if identity.IsRegistered() {
				return nil, domain.ErrRespondentNotFound
			}
			return nil, nil
		}
		return nil, classify(err, "resolve respondent")
	}
	return &r, nil
}

func insertEphemeral(ctx context.Context, tx *sql.Tx, identity domain.RespondentIdentity) (*ledgerRespondent, error) {
	r := &ledgerRespondent{id: uuid.New(), kind: domain.RespondentEphemeral, balance: decimal.Zero}
	var contact sql.NullString
	if identity.Contact != "" {
		contact = sql.NullString{String: identity.Contact, Valid: true}
	}

	query := `INSERT INTO respondents (id, kind, display_name, contact) VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, query, r.id, r.kind, identity.DisplayName, contact); err != nil {
		return nil, classify(err, "insert anonymous respondent")
	}
	return r, nil
}

// credit adds amount to the respondent's balance and lifetime earnings and
// records the entry. Balances are only ever incremented in place.
func credit(ctx context.Context, tx *sql.Tx, respondentID uuid.UUID, amount decimal.Decimal, kind domain.BalanceEntryKind, reference uuid.UUID) (decimal.Decimal, error) {
	query := `
		UPDATE respondents
		SET balance = balance + $2, total_earned = total_earned + $2
		WHERE id = $1
		RETURNING balance
	`
	var balance decimal.Decimal
	if err := tx.QueryRowContext(ctx, query, respondentID, amount).Scan(&balance); err != nil {
		return decimal.Zero, classify(err, "credit balance")
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO balance_entries (id, respondent_id, amount, kind, reference_id) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), respondentID, amount, kind, reference,
	)
	if err != nil {
		return decimal.Zero, classify(err, "record balance entry")
	}
	return balance, nil
}
