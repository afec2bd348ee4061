package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type SurveyHandler struct {
	service ports.SurveyService
}

func NewSurveyHandler(service ports.SurveyService) *SurveyHandler {
	return &SurveyHandler{
		service: service,
	}
}

type createQuestionRequest struct {
	Text         string   `json:"text" validate:"required,max=500"`
	Type         string   `json:"type" validate:"required,oneof=text single-choice multiple-choice rating yes-no"`
	Options      []string `json:"options" validate:"omitempty,dive,required"`
	Required     bool     `json:"required"`
	DisplayOrder int      `json:"display_order" validate:"gte=0"`
}

type createSurveyRequest struct {
	Title          string                  `json:"title" validate:"required,max=200"`
	Description    string                  `json:"description" validate:"max=2000"`
	Reward         decimal.Decimal         `json:"reward"`
	MaxRespondents int                     `json:"max_respondents" validate:"required,gt=0"`
	ExpiresAt      *time.Time              `json:"expires_at"`
	Questions      []createQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

func (h *SurveyHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req createSurveyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidation(w, err.Error())
		return
	}

	input := ports.CreateSurveyInput{
		Title:          req.Title,
		Description:    req.Description,
		Reward:         req.Reward,
		MaxRespondents: req.MaxRespondents,
		ExpiresAt:      req.ExpiresAt,
	}
	for _, q := range req.Questions {
		input.Questions = append(input.Questions, ports.CreateQuestionInput{
			Text:         q.Text,
			Type:         domain.QuestionType(q.Type),
			Options:      q.Options,
			Required:     q.Required,
			DisplayOrder: q.DisplayOrder,
		})
	}

	survey, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, survey)
}

func (h *SurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	survey, err := h.service.GetSurvey(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

// GetShared is the public view reached through a share link.
func (h *SurveyHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	survey, err := h.service.GetByShareCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if survey.Status != domain.SurveyActive {
		writeError(w, r, domain.ErrSurveyInactive)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused completed"`
}

func (h *SurveyHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req setStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidation(w, err.Error())
		return
	}

	if err := h.service.SetStatus(r.Context(), id, domain.SurveyStatus(req.Status)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func surveyID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidSurveyID
	}
	return id, nil
}
