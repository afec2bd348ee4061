package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

const surveyColumns = `id, title, description, reward, max_respondents, current_respondents, status, expires_at, share_code, created_at`

type surveyRepository struct {
	db *sql.DB
}

func NewSurveyRepository(db *sql.DB) ports.SurveyRepository {
	return &surveyRepository{
		db: db,
	}
}

func (r *surveyRepository) Save(ctx context.Context, survey *domain.Survey) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "begin transaction")
	}
	defer tx.Rollback()

	querySurvey := `
		INSERT INTO surveys (id, title, description, reward, max_respondents, status, expires_at, share_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, querySurvey,
		survey.ID, survey.Title, survey.Description, survey.Reward, survey.MaxRespondents,
		survey.Status, survey.ExpiresAt, survey.ShareCode, survey.CreatedAt,
	)
	if err != nil {
		return classify(err, "insert survey")
	}

	queryQuestion := `
		INSERT INTO questions (id, survey_id, text, type, options, required, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stmt, err := tx.PrepareContext(ctx, queryQuestion)
	if err != nil {
		return classify(err, "prepare question statement")
	}
	defer stmt.Close()

	for _, q := range survey.Questions {
		options := q.Options
		if options == nil {
			options = []string{}
		}
		_, err = stmt.ExecContext(ctx, q.ID, survey.ID, q.Text, q.Type, pq.Array(options), q.Required, q.DisplayOrder)
		if err != nil {
			return classify(err, "insert question")
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(err, "commit transaction")
	}

	return nil
}

func (r *surveyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *surveyRepository) GetByShareCode(ctx context.Context, code string) (*domain.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE share_code = $1`
	return r.getOne(ctx, query, code)
}

func (r *surveyRepository) getOne(ctx context.Context, query string, arg any) (*domain.Survey, error) {
	survey, err := scanSurvey(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSurveyNotFound
		}
		return nil, classify(err, "get survey")
	}

	questions, err := r.fetchQuestions(ctx, survey.ID)
	if err != nil {
		return nil, err
	}
	survey.Questions = questions

	return survey, nil
}

func (r *surveyRepository) ListActive(ctx context.Context) ([]*domain.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE status = 'active' ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err, "list active surveys")
	}
	defer rows.Close()

	var surveys []*domain.Survey
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, classify(err, "scan survey")
		}
		surveys = append(surveys, survey)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate surveys")
	}

	for _, s := range surveys {
		if s.Questions, err = r.fetchQuestions(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return surveys, nil
}

func (r *surveyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SurveyStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE surveys SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return classify(err, "update survey status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, "update survey status")
	}
	if n == 0 {
		return domain.ErrSurveyNotFound
	}
	return nil
}

func (r *surveyRepository) fetchQuestions(ctx context.Context, surveyID uuid.UUID) ([]domain.Question, error) {
	query := `
		SELECT id, survey_id, text, type, options, required, display_order
		FROM questions
		WHERE survey_id = $1
		ORDER BY display_order
	`
	rows, err := r.db.QueryContext(ctx, query, surveyID)
	if err != nil {
		return nil, classify(err, "get questions")
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var options []string
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Text, &q.Type, pq.Array(&options), &q.Required, &q.DisplayOrder); err != nil {
			return nil, classify(err, "scan question")
		}
		if len(options) > 0 {
			q.Options = options
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate questions")
	}
	return questions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner) (*domain.Survey, error) {
	var s domain.Survey
	var expiresAt sql.NullTime
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.Reward, &s.MaxRespondents, &s.CurrentRespondents,
		&s.Status, &expiresAt, &s.ShareCode, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		s.ExpiresAt = &t
	}
	return &s, nil
}
