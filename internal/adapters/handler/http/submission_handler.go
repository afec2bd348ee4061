package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type SubmissionHandler struct {
	service ports.SubmissionService
}

func NewSubmissionHandler(service ports.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
	}
}

type respondentRef struct {
	Contact     string `json:"contact" validate:"omitempty,max=254"`
	DisplayName string `json:"displayName" validate:"omitempty,max=120"`
}

type submitRequest struct {
	SurveyID      string          `json:"surveyId" validate:"required,uuid"`
	Answers       json.RawMessage `json:"answers"`
	ShareCode     string          `json:"shareCode" validate:"omitempty,max=32"`
	RespondentRef *respondentRef  `json:"respondentRef"`
	Timezone      string          `json:"timezone" validate:"omitempty,timezone"`
}

type submitResponse struct {
	ResponseID     uuid.UUID `json:"responseId"`
	RewardCredited string    `json:"rewardCredited"`
	NewBalance     string    `json:"newBalance"`
}

// Submit records one response. Authenticated callers submit as themselves;
// anyone else needs the survey's share code.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidation(w, err.Error())
		return
	}

	identity := domain.Ephemeral("", "")
	if req.RespondentRef != nil {
		identity = domain.Ephemeral(req.RespondentRef.Contact, req.RespondentRef.DisplayName)
	}
	if id, ok := respondentFrom(r.Context()); ok {
		identity = domain.Registered(id)
	}

	receipt, err := h.service.Submit(r.Context(), ports.SubmitInput{
		SurveyID:  uuid.MustParse(req.SurveyID),
		Answers:   req.Answers,
		Identity:  identity,
		ShareCode: req.ShareCode,
		Timezone:  req.Timezone,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		ResponseID:     receipt.ResponseID,
		RewardCredited: receipt.RewardCredited.StringFixed(2),
		NewBalance:     receipt.NewBalance.StringFixed(2),
	})
}
