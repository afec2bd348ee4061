package http

import (
	"net/http"

	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

type RespondentHandler struct {
	service ports.ReferralService
}

func NewRespondentHandler(service ports.ReferralService) *RespondentHandler {
	return &RespondentHandler{
		service: service,
	}
}

type registerRequest struct {
	DisplayName  string `json:"display_name" validate:"required,max=120"`
	Contact      string `json:"contact" validate:"omitempty,max=254"`
	ReferralCode string `json:"referral_code" validate:"omitempty,alphanum,max=32"`
}

func (h *RespondentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidation(w, err.Error())
		return
	}

	respondent, err := h.service.Register(r.Context(), ports.RegisterInput{
		DisplayName:  req.DisplayName,
		Contact:      req.Contact,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, respondent)
}
