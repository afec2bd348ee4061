package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type exportJobRepository struct {
	db *sql.DB
}

func NewExportJobRepository(db *sql.DB) ports.ExportJobRepository {
	return &exportJobRepository{
		db: db,
	}
}

func (r *exportJobRepository) Create(ctx context.Context, job *domain.ExportJob) error {
	query := `
		INSERT INTO export_jobs (id, survey_id, format, range_from, range_to, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.SurveyID, job.Format, nullTime(job.Range.From), nullTime(job.Range.To),
		job.Status, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return classify(err, "create export job")
	}
	return nil
}

func (r *exportJobRepository) Get(ctx context.Context, id uuid.UUID) (*domain.ExportJob, error) {
	query := `
		SELECT id, survey_id, format, range_from, range_to, status, filename, content_type, content, error, created_at, updated_at
		FROM export_jobs
		WHERE id = $1
	`
	var (
		job         domain.ExportJob
		from, to    sql.NullTime
		filename    string
		contentType string
		content     []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.SurveyID, &job.Format, &from, &to, &job.Status,
		&filename, &contentType, &content, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExportJobNotFound
		}
		return nil, classify(err, "get export job")
	}

	job.Range = domain.DateRange{From: from.Time, To: to.Time}
	if job.Status == domain.ExportDone {
		job.File = &domain.ExportFile{Filename: filename, ContentType: contentType, Content: content}
	}
	return &job, nil
}

func (r *exportJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, `UPDATE export_jobs SET status = 'processing', updated_at = NOW() WHERE id = $1`, id)
}

func (r *exportJobRepository) Complete(ctx context.Context, id uuid.UUID, file *domain.ExportFile) error {
	query := `
		UPDATE export_jobs
		SET status = 'done', filename = $2, content_type = $3, content = $4, error = '', updated_at = NOW()
		WHERE id = $1
	`
	return r.update(ctx, query, id, file.Filename, file.ContentType, file.Content)
}

func (r *exportJobRepository) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return r.update(ctx, `UPDATE export_jobs SET status = 'failed', error = $2, updated_at = NOW() WHERE id = $1`, id, reason)
}

func (r *exportJobRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err, "update export job")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, "update export job")
	}
	if n == 0 {
		return domain.ErrExportJobNotFound
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
