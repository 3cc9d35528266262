package adminportal

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
	r.Use(middleware.RequireRole("staff"))

	r.Get("/dashboard", DashboardHandler)
	r.Get("/board", DepartmentBoardHandler)

	r.Get("/tickets/export", ExportCSVHandler)
	r.Post("/tickets/bulk-assign", BulkAssignHandler)
	r.Post("/tickets/bulk-status", BulkStatusHandler)
	r.Get("/tickets/{ticketNumber}", TicketDetailHandler)
	r.Post("/tickets/{ticketNumber}/status", UpdateStatusHandler)
	r.Post("/tickets/{ticketNumber}/assign", AssignHandler)
	r.Post("/tickets/{ticketNumber}/notes", AddNoteHandler)

	r.Get("/notifications", NotificationsHandler)
	r.Post("/notifications/{id}/read", MarkNotificationReadHandler)

	r.Get("/reports/predictive", PredictiveReportHandler)

	return r
}
