package contractorportal

import (
	"net/http"

	"github.com/CivicSetu/CS-Backend/internal/auth"
	"github.com/CivicSetu/CS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Use(middleware.SessionMiddleware(sessionFetcher))
	r.Use(middleware.RequireRole("contractor"))

	r.Get("/dashboard", DashboardHandler)
	r.Get("/tickets/{ticketNumber}", TicketDetailHandler)
	r.Post("/tickets/{ticketNumber}/start-work", StartWorkHandler)
	r.Post("/tickets/{ticketNumber}/complete", SubmitCompletionHandler)

	return r
}
