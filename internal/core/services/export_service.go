package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

const (
	multiValueSeparator = "; "
	exportTimeLayout    = "2006-01-02 15:04:05"
)

// Fixed leading export columns.
var exportLeadingHeader = []string{"Respondent", "Contact", "Submitted At"}

// BuildTable lays out one row per response: respondent name, contact and
// submission time, then one column per question in display order. Every
// export format renders this table unchanged.
func BuildTable(survey *domain.Survey, responses []*domain.Response) domain.Table {
	questions := make([]domain.Question, len(survey.Questions))
	copy(questions, survey.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].DisplayOrder < questions[j].DisplayOrder
	})

	header := make([]string, 0, len(exportLeadingHeader)+len(questions))
	header = append(header, exportLeadingHeader...)
	for _, q := range questions {
		header = append(header, q.Text)
	}

	rows := make([][]string, 0, len(responses))
	for _, r := range responses {
		row := make([]string, 0, len(header))
		row = append(row, r.RespondentName, r.RespondentContact, r.SubmittedAt.UTC().Format(exportTimeLayout))
		for _, q := range questions {
			ans, ok := r.Answers[q.ID.String()]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, ans.Join(multiValueSeparator))
		}
		rows = append(rows, row)
	}

	return domain.Table{Title: survey.Title, Header: header, Rows: rows}
}

type ExportOptions struct {
	Logger  *slog.Logger
	Metrics ports.Metrics
}

type exportService struct {
	surveyRepo   ports.SurveyRepository
	responseRepo ports.ResponseRepository
	jobs         ports.ExportJobRepository
	queue        ports.ExportQueue
	renderers    map[domain.ExportFormat]ports.TableRenderer

	logger  *slog.Logger
	metrics ports.Metrics
}

// NewExportService wires the export path. jobs and queue may be nil, which
// disables background exports.
func NewExportService(
	surveyRepo ports.SurveyRepository,
	responseRepo ports.ResponseRepository,
	renderers map[domain.ExportFormat]ports.TableRenderer,
	jobs ports.ExportJobRepository,
	queue ports.ExportQueue,
	opts ExportOptions,
) ports.ExportService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = ports.NopMetrics{}
	}
	return &exportService{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		jobs:         jobs,
		queue:        queue,
		renderers:    renderers,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
}

func (s *exportService) Export(ctx context.Context, surveyID uuid.UUID, format domain.ExportFormat, dateRange domain.DateRange) (*domain.ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responseRepo.ListBySurvey(ctx, surveyID, dateRange)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	file, err := renderer.Render(BuildTable(survey, responses))
	if err != nil {
		return nil, fmt.Errorf("failed to render %s export: %w", format, err)
	}
	s.metrics.ExportRendered(string(format))
	return file, nil
}

func (s *exportService) RequestExport(ctx context.Context, surveyID uuid.UUID, format domain.ExportFormat, dateRange domain.DateRange) (*domain.ExportJob, error) {
	if s.jobs == nil || s.queue == nil {
		return nil, domain.ErrQueueUnavailable
	}
	if _, ok := s.renderers[format]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	if _, err := s.surveyRepo.GetByID(ctx, surveyID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &domain.ExportJob{
		ID:        uuid.New(),
		SurveyID:  surveyID,
		Format:    format,
		Range:     dateRange,
		Status:    domain.ExportQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	if err := s.queue.EnqueueExport(ctx, job.ID); err != nil {
		if ferr := s.jobs.Fail(ctx, job.ID, "failed to enqueue"); ferr != nil {
			s.logger.ErrorContext(ctx, "failed to mark export job failed", "job_id", job.ID, "error", ferr)
		}
		return nil, fmt.Errorf("failed to enqueue export job: %w", err)
	}

	s.logger.InfoContext(ctx, "export job queued", "job_id", job.ID, "survey_id", surveyID, "format", format)
	return job, nil
}

func (s *exportService) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.ExportJob, error) {
	if s.jobs == nil {
		return nil, domain.ErrQueueUnavailable
	}
	return s.jobs.Get(ctx, jobID)
}

// ProcessJob renders a queued job and stores the result. A rendering failure
// is recorded on the job and not returned, so the task is not retried.
func (s *exportService) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	if s.jobs == nil {
		return domain.ErrQueueUnavailable
	}

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == domain.ExportDone {
		return nil
	}
	if err := s.jobs.MarkProcessing(ctx, jobID); err != nil {
		return err
	}

	file, err := s.Export(ctx, job.SurveyID, job.Format, job.Range)
	if err != nil {
		if !domain.IsUserCorrectable(err) {
			return err
		}
		s.logger.WarnContext(ctx, "export job failed", "job_id", jobID, "error", err)
		return s.jobs.Fail(ctx, jobID, err.Error())
	}

	if err := s.jobs.Complete(ctx, jobID, file); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "export job done", "job_id", jobID, "bytes", len(file.Content))
	return nil
}
