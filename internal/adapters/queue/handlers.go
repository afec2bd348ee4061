package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type Handlers struct {
	exports ports.ExportService
	surveys ports.SurveyService
	logger  *slog.Logger
}

func NewHandlers(exports ports.ExportService, surveys ports.SurveyService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{exports: exports, surveys: surveys, logger: logger}
}

// Register binds every task type to its handler.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeExportRender, h.HandleExportRender)
	mux.HandleFunc(TypeSurveyClose, h.HandleSurveyClose)
}

func (h *Handlers) HandleExportRender(ctx context.Context, t *asynq.Task) error {
	payload, err := decode[ExportRenderPayload](t)
	if err != nil {
		return err
	}

	err = h.exports.ProcessJob(ctx, payload.JobID)
	if errors.Is(err, domain.ErrExportJobNotFound) {
		h.logger.Warn("export job vanished, skipping", "job_id", payload.JobID)
		return nil
	}
	if err != nil {
		h.logger.Error("export job failed", "job_id", payload.JobID, "error", err)
		return err
	}

	h.logger.Info("export job processed", "job_id", payload.JobID)
	return nil
}

// HandleSurveyClose marks an expired survey completed. Surveys that were
// deleted or already completed are left alone.
func (h *Handlers) HandleSurveyClose(ctx context.Context, t *asynq.Task) error {
	payload, err := decode[SurveyClosePayload](t)
	if err != nil {
		return err
	}

	survey, err := h.surveys.GetSurvey(ctx, payload.SurveyID.String())
	if errors.Is(err, domain.ErrSurveyNotFound) {
		h.logger.Warn("survey not found, skipping close", "survey_id", payload.SurveyID)
		return nil
	}
	if err != nil {
		return err
	}
	if survey.Status == domain.SurveyCompleted {
		return nil
	}

	if err := h.surveys.SetStatus(ctx, survey.ID, domain.SurveyCompleted); err != nil {
		h.logger.Error("failed to close survey", "survey_id", survey.ID, "error", err)
		return err
	}

	h.logger.Info("survey closed after expiry", "survey_id", survey.ID)
	return nil
}
