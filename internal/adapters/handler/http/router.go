package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups everything the router mounts. Metrics and MetricsHandler
// may be nil.
type Handlers struct {
	Submissions *SubmissionHandler
	Surveys     *SurveyHandler
	Analytics   *AnalyticsHandler
	Exports     *ExportHandler
	Respondents *RespondentHandler

	Auth           *Auth
	SubmitLimiter  *RateLimiter
	Metrics        RequestObserver
	MetricsHandler http.Handler
}

func NewHandler(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if h.Metrics != nil {
		r.Use(instrument(h.Metrics))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("welcome"))
		})

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.OptionalAuth)
			if h.SubmitLimiter != nil {
				r.Use(h.SubmitLimiter.Middleware)
			}
			r.Post("/responses", h.Submissions.Submit)
		})

		r.Get("/share/{code}", h.Surveys.GetShared)
		r.Post("/respondents", h.Respondents.Register)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)

			r.Route("/surveys", func(r chi.Router) {
				r.Post("/", h.Surveys.CreateSurvey)
				r.Get("/{id}", h.Surveys.GetSurvey)
				r.Put("/{id}/status", h.Surveys.SetStatus)
				r.Get("/{id}/aggregate", h.Analytics.GetAggregate)
				r.Get("/{id}/export", h.Exports.Export)
				r.Post("/{id}/exports", h.Exports.RequestExport)
			})
			r.Get("/exports/{jobID}", h.Exports.GetJob)
		})
	})

	return r
}
