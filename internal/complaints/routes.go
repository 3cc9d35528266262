package complaints

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes returns the citizen-facing router. No session required:
// citizens are anonymous and track tickets by number.
func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Post("/capture-photo", CapturePhotoHandler)
	r.Post("/submit-complaint", SubmitComplaintHandler)
	r.Get("/track-ticket", TrackTicketHandler)
	r.Post("/rate-ticket", RateTicketHandler)

	return r
}
