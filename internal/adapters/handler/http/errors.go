package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

type errorResponse struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

var kindStatus = map[string]int{
	domain.KindMalformedAnswerPayload: http.StatusBadRequest,
	domain.KindValidationFailed:       http.StatusBadRequest,
	domain.KindSurveyNotFound:         http.StatusNotFound,
	domain.KindSurveyInactive:         http.StatusBadRequest,
	domain.KindSurveyExpired:          http.StatusGone,
	domain.KindSurveyFull:             http.StatusGone,
	domain.KindDuplicateResponse:      http.StatusBadRequest,
	domain.KindMissingRequiredAnswer:  http.StatusBadRequest,
	domain.KindUnauthenticated:        http.StatusUnauthorized,
	domain.KindRespondentNotFound:     http.StatusNotFound,
	domain.KindNotFound:               http.StatusNotFound,
	domain.KindTransientConflict:      http.StatusServiceUnavailable,
	domain.KindUnavailable:            http.StatusServiceUnavailable,
	domain.KindPersistenceFailure:     http.StatusInternalServerError,
}

func statusFor(kind string) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError maps err onto its kind and status. Storage failures are logged
// and reported without their cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	detail := err.Error()

	if kind == domain.KindPersistenceFailure {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		detail = domain.ErrPersistenceFailure.Error()
	}
	var missing *domain.MissingRequiredAnswerError
	if errors.As(err, &missing) {
		detail = missing.QuestionID
	}

	writeKind(w, statusFor(kind), kind, detail)
}

func writeKind(w http.ResponseWriter, status int, kind, detail string) {
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorResponse{Kind: kind, Detail: detail})
}

func writeValidation(w http.ResponseWriter, detail string) {
	writeKind(w, http.StatusBadRequest, domain.KindValidationFailed, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
