package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type joinRenderer struct{}

func (joinRenderer) Render(table domain.Table) (*domain.ExportFile, error) {
	var b strings.Builder
	b.WriteString(strings.Join(table.Header, "|"))
	for _, row := range table.Rows {
		b.WriteString("\n" + strings.Join(row, "|"))
	}
	return &domain.ExportFile{Filename: "out.txt", ContentType: "text/plain", Content: []byte(b.String())}, nil
}

type failingRenderer struct{}

func (failingRenderer) Render(domain.Table) (*domain.ExportFile, error) {
	return nil, errors.New("boom")
}

type memJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.ExportJob
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[uuid.UUID]*domain.ExportJob)}
}

func (m *memJobs) Create(_ context.Context, job *domain.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobs) Get(_ context.Context, id uuid.UUID) (*domain.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrExportJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) set(id uuid.UUID, fn func(j *domain.ExportJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.ErrExportJobNotFound
	}
	fn(j)
	return nil
}

func (m *memJobs) MarkProcessing(_ context.Context, id uuid.UUID) error {
	return m.set(id, func(j *domain.ExportJob) { j.Status = domain.ExportProcessing })
}

func (m *memJobs) Complete(_ context.Context, id uuid.UUID, file *domain.ExportFile) error {
	return m.set(id, func(j *domain.ExportJob) {
		j.Status = domain.ExportDone
		j.File = file
	})
}

func (m *memJobs) Fail(_ context.Context, id uuid.UUID, reason string) error {
	return m.set(id, func(j *domain.ExportJob) {
		j.Status = domain.ExportFailed
		j.Error = reason
	})
}

type memQueue struct {
	enqueued []uuid.UUID
	err      error
}

func (q *memQueue) EnqueueExport(_ context.Context, id uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, id)
	return nil
}

func TestBuildTable_ColumnsFollowDisplayOrder(t *testing.T) {
	second := question("Tags", domain.QuestionMultipleChoice, 2, false, "a", "b")
	first := question("Name", domain.QuestionText, 1, true)
	survey := activeSurvey(second, first)

	at := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	table := BuildTable(survey, []*domain.Response{
		{
			RespondentName:    "Ada",
			RespondentContact: "ada@example.com",
			SubmittedAt:       at,
			Answers: domain.Answers{
				first.ID.String():  domain.Single(`She said "hi"`),
				second.ID.String(): domain.Multi("a", "b"),
			},
		},
		{RespondentName: "Guest", SubmittedAt: at, Answers: domain.Answers{}},
	})

	assert.Equal(t, survey.Title, table.Title)
	assert.Equal(t, []string{"Respondent", "Contact", "Submitted At", "Name", "Tags"}, table.Header)
	assert.Equal(t, [][]string{
		{"Ada", "ada@example.com", "2025-05-06 07:08:09", `She said "hi"`, "a; b"},
		{"Guest", "", "2025-05-06 07:08:09", "", ""},
	}, table.Rows)
}

func exportFixture(t *testing.T) (*memStore, *domain.Survey, *memJobs, *memQueue, ports.ExportService) {
	t.Helper()
	store, survey, _ := seededStore(t)
	jobs := newMemJobs()
	queue := &memQueue{}
	svc := NewExportService(store, store, map[domain.ExportFormat]ports.TableRenderer{
		domain.FormatCSV:       joinRenderer{},
		domain.FormatWordTable: failingRenderer{},
	}, jobs, queue, ExportOptions{})
	return store, survey, jobs, queue, svc
}

func TestExportService_Export(t *testing.T) {
	_, survey, _, _, svc := exportFixture(t)

	file, err := svc.Export(context.Background(), survey.ID, domain.FormatCSV, domain.DateRange{})
	require.NoError(t, err)
	lines := strings.Split(string(file.Content), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "Respondent|Contact|Submitted At|Colour", lines[0])

	_, err = svc.Export(context.Background(), survey.ID, domain.FormatSpreadsheet, domain.DateRange{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = svc.Export(context.Background(), uuid.New(), domain.FormatCSV, domain.DateRange{})
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
}

func TestExportService_JobLifecycle(t *testing.T) {
	_, survey, jobs, queue, svc := exportFixture(t)

	job, err := svc.RequestExport(context.Background(), survey.ID, domain.FormatCSV, domain.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, domain.ExportQueued, job.Status)
	assert.Equal(t, []uuid.UUID{job.ID}, queue.enqueued)

	require.NoError(t, svc.ProcessJob(context.Background(), job.ID))
	done, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportDone, done.Status)
	require.NotNil(t, done.File)
	assert.NotEmpty(t, done.File.Content)

	failing, err := svc.RequestExport(context.Background(), survey.ID, domain.FormatWordTable, domain.DateRange{})
	require.NoError(t, err)
	err = svc.ProcessJob(context.Background(), failing.ID)
	require.Error(t, err)
	j, _ := jobs.Get(context.Background(), failing.ID)
	assert.Equal(t, domain.ExportProcessing, j.Status)
}

func TestExportService_QueueFailures(t *testing.T) {
	_, survey, jobs, queue, svc := exportFixture(t)

	queue.err = errors.New("redis down")
	_, err := svc.RequestExport(context.Background(), survey.ID, domain.FormatCSV, domain.DateRange{})
	require.Error(t, err)
	require.Len(t, jobs.jobs, 1)
	for _, j := range jobs.jobs {
		assert.Equal(t, domain.ExportFailed, j.Status)
	}

	store, _, _ := seededStore(t)
	noQueue := NewExportService(store, store, nil, nil, nil, ExportOptions{})
	_, err = noQueue.RequestExport(context.Background(), survey.ID, domain.FormatCSV, domain.DateRange{})
	assert.ErrorIs(t, err, domain.ErrQueueUnavailable)
}

func TestExportService_ProcessJobRecordsUserErrors(t *testing.T) {
	store, survey, jobs, _, svc := exportFixture(t)

	job, err := svc.RequestExport(context.Background(), survey.ID, domain.FormatCSV, domain.DateRange{})
	require.NoError(t, err)

	store.mu.Lock()
	delete(store.surveys, survey.ID)
	store.mu.Unlock()

	require.NoError(t, svc.ProcessJob(context.Background(), job.ID))
	j, _ := jobs.Get(context.Background(), job.ID)
	assert.Equal(t, domain.ExportFailed, j.Status)
	assert.Contains(t, j.Error, "survey not found")
}
