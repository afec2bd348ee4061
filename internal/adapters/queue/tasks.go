// Package queue runs export rendering and survey expiry in the background on
// asynq.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeExportRender = "export:render"
	TypeSurveyClose  = "survey:close"
)

type ExportRenderPayload struct {
	JobID uuid.UUID `json:"job_id"`
}

type SurveyClosePayload struct {
	SurveyID uuid.UUID `json:"survey_id"`
}

func NewExportRenderTask(jobID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(ExportRenderPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExportRender, payload), nil
}

func NewSurveyCloseTask(surveyID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(SurveyClosePayload{SurveyID: surveyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSurveyClose, payload), nil
}

func exportTaskID(jobID uuid.UUID) string {
	return "export-" + jobID.String()
}

func closeTaskID(surveyID uuid.UUID) string {
	return "survey-close-" + surveyID.String()
}

func decode[T any](t *asynq.Task) (T, error) {
	var payload T
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return payload, nil
}
