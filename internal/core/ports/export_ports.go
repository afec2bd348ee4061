package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

// TableRenderer turns the shared export table into one container format.
type TableRenderer interface {
	Render(table domain.Table) (*domain.ExportFile, error)
}

type ExportJobRepository interface {
	Create(ctx context.Context, job *domain.ExportJob) error
	Get(ctx context.Context, id uuid.UUID) (*domain.ExportJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, file *domain.ExportFile) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}

type ExportQueue interface {
	EnqueueExport(ctx context.Context, jobID uuid.UUID) error
}

type ExportService interface {
	Export(ctx context.Context, surveyID uuid.UUID, format domain.ExportFormat, dateRange domain.DateRange) (*domain.ExportFile, error)
	RequestExport(ctx context.Context, surveyID uuid.UUID, format domain.ExportFormat, dateRange domain.DateRange) (*domain.ExportJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.ExportJob, error)
	ProcessJob(ctx context.Context, jobID uuid.UUID) error
}
