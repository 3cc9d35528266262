package vision

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(s *Service) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", HealthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze/complaint", s.AnalyzeHandler)
		r.Post("/verify/completion", s.VerifyHandler)
		r.Post("/analytics/predict", s.PredictHandler)
	})

	return r
}
