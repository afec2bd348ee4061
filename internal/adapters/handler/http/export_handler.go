package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type ExportHandler struct {
	service ports.ExportService
}

func NewExportHandler(service ports.ExportService) *ExportHandler {
	return &ExportHandler{
		service: service,
	}
}

func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dateRange, err := parseDateRange(r)
	if err != nil {
		writeValidation(w, err.Error())
		return
	}

	format := domain.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = domain.FormatCSV
	}

	file, err := h.service.Export(r.Context(), id, format, dateRange)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, file)
}

type requestExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv table-document word-table spreadsheet"`
	From   string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

func (h *ExportHandler) RequestExport(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req requestExportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidation(w, err.Error())
		return
	}
	var dateRange domain.DateRange
	if req.From != "" {
		dateRange.From, _ = time.Parse(dateLayout, req.From)
	}
	if req.To != "" {
		dateRange.To, _ = time.Parse(dateLayout, req.To)
	}

	job, err := h.service.RequestExport(r.Context(), id, domain.ExportFormat(req.Format), dateRange)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/exports/"+job.ID.String())
	writeJSON(w, http.StatusAccepted, job)
}

// GetJob reports a job's status, or serves the file once it is done.
func (h *ExportHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, domain.ErrExportJobNotFound)
		return
	}

	job, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if job.Status == domain.ExportDone && job.File != nil {
		writeFile(w, job.File)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func writeFile(w http.ResponseWriter, file *domain.ExportFile) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Content)
}
