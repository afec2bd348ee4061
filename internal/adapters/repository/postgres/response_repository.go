package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type responseRepository struct {
	db *sql.DB
}

func NewResponseRepository(db *sql.DB) ports.ResponseRepository {
	return &responseRepository{
		db: db,
	}
}

// HasResponded resolves the identity the same way the ledger does: by id for
// registered respondents, by contact address for anonymous ones.
func (r *responseRepository) HasResponded(ctx context.Context, surveyID uuid.UUID, identity domain.RespondentIdentity) (bool, error) {
	var (
		query string
		arg   any
	)
	switch {
	case identity.IsRegistered():
		query = `SELECT EXISTS (SELECT 1 FROM responses WHERE survey_id = $1 AND respondent_id = $2)`
		arg = identity.ID
	case identity.Contact != "":
		query = `
			SELECT EXISTS (
				SELECT 1 FROM responses r
				JOIN respondents p ON p.id = r.respondent_id
				WHERE r.survey_id = $1 AND LOWER(p.contact) = LOWER($2)
			)
		`
		arg = identity.Contact
	default:
		return false, nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, surveyID, arg).Scan(&exists); err != nil {
		return false, classify(err, "check existing response")
	}
	return exists, nil
}

// ListBySurvey reads responses in submission order. The date range end is
// inclusive of the whole day.
func (r *responseRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID, dateRange domain.DateRange) ([]*domain.Response, error) {
	query := `
		SELECT r.id, r.survey_id, r.respondent_id, r.answers, r.submitted_at, r.timezone,
		       r.reward_granted, r.reward, p.display_name, COALESCE(p.contact, '')
		FROM responses r
		JOIN respondents p ON p.id = r.respondent_id
		WHERE r.survey_id = $1
		  AND ($2::timestamptz IS NULL OR r.submitted_at >= $2)
		  AND ($3::timestamptz IS NULL OR r.submitted_at < $3)
		ORDER BY r.submitted_at, r.id
	`

	from := nullTime(dateRange.From)
	to := nullTime(dateRange.To)
	if to.Valid {
		to.Time = to.Time.AddDate(0, 0, 1)
	}

	rows, err := r.db.QueryContext(ctx, query, surveyID, from, to)
	if err != nil {
		return nil, classify(err, "list responses")
	}
	defer rows.Close()

	var responses []*domain.Response
	for rows.Next() {
		var resp domain.Response
		err := rows.Scan(
			&resp.ID, &resp.SurveyID, &resp.RespondentID, &resp.Answers, &resp.SubmittedAt, &resp.Timezone,
			&resp.RewardGranted, &resp.Reward, &resp.RespondentName, &resp.RespondentContact,
		)
		if err != nil {
			return nil, classify(err, "scan response")
		}
		responses = append(responses, &resp)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate responses")
	}
	return responses, nil
}
