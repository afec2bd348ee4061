package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

const dateLayout = "2006-01-02"

type AnalyticsHandler struct {
	service ports.AnalyticsService
}

func NewAnalyticsHandler(service ports.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

func (h *AnalyticsHandler) GetAggregate(w http.ResponseWriter, r *http.Request) {
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

	agg, err := h.service.Aggregate(r.Context(), id, dateRange)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// parseDateRange reads the optional from/to query parameters. Both bounds
// are inclusive calendar days.
func parseDateRange(r *http.Request) (domain.DateRange, error) {
	var dr domain.DateRange
	q := r.URL.Query()

	if v := q.Get("from"); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			return dr, errors.New("from must be YYYY-MM-DD")
		}
		dr.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			return dr, errors.New("to must be YYYY-MM-DD")
		}
		dr.To = to
	}
	if !dr.From.IsZero() && !dr.To.IsZero() && dr.To.Before(dr.From) {
		return dr, errors.New("to must not be before from")
	}
	return dr, nil
}
