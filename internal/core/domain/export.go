package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExportFormat string

const (
	FormatCSV           ExportFormat = "csv"
	FormatTableDocument ExportFormat = "table-document"
	FormatWordTable     ExportFormat = "word-table"
	FormatSpreadsheet   ExportFormat = "spreadsheet"
)

func (f ExportFormat) Valid() bool {
	switch f {
	case FormatCSV, FormatTableDocument, FormatWordTable, FormatSpreadsheet:
		return true
	}
	return false
}

// Table is the single row/column construction every export format renders.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type ExportJobStatus string

const (
	ExportQueued     ExportJobStatus = "queued"
	ExportProcessing ExportJobStatus = "processing"
	ExportDone       ExportJobStatus = "done"
	ExportFailed     ExportJobStatus = "failed"
)

type ExportJob struct {
	ID        uuid.UUID       `json:"job_id"`
	SurveyID  uuid.UUID       `json:"survey_id"`
	Format    ExportFormat    `json:"format"`
	Range     DateRange       `json:"-"`
	Status    ExportJobStatus `json:"status"`
	Error     string          `json:"error,omitempty"`
	File      *ExportFile     `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
