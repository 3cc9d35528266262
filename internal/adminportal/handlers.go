package adminportal

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/CivicSetu/CS-Backend/internal/aigateway"
	"github.com/CivicSetu/CS-Backend/internal/complaints"
	"github.com/CivicSetu/CS-Backend/internal/db"
	"github.com/CivicSetu/CS-Backend/internal/registry"
	"github.com/CivicSetu/CS-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// Gateway is wired in Init; tests swap it for a fake.
var Gateway *aigateway.Client

type countRow struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

func countsBy(column string) (map[string]int64, error) {
	var rows []countRow
	err := db.DB.Model(&complaints.Ticket{}).
		Select(column + " as key, count(*) as count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

func DashboardHandler(w http.ResponseWriter, r *http.Request) {
	var total int64
	if err := db.DB.Model(&complaints.Ticket{}).Count(&total).Error; err != nil {
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	statusCounts, err := countsBy("status")
	if err != nil {
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	departmentCounts, err := countsBy("department")
	if err != nil {
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var today, thisWeek, thisMonth int64
	db.DB.Model(&complaints.Ticket{}).Where("created_at >= ?", dayStart).Count(&today)
	db.DB.Model(&complaints.Ticket{}).Where("created_at >= ?", dayStart.AddDate(0, 0, -int(dayStart.Weekday()))).Count(&thisWeek)
	db.DB.Model(&complaints.Ticket{}).Where("created_at >= ?", time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())).Count(&thisMonth)

	var avgRating float64
	db.DB.Model(&complaints.Ticket{}).
		Where("rating IS NOT NULL").
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avgRating)

	var recent []complaints.Ticket
	db.DB.Order("created_at DESC").Limit(10).Find(&recent)

	var topContractors []registry.Contractor
	db.DB.Where("rating_count > 0").Order("average_rating DESC").Limit(5).Find(&topContractors)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total_tickets":     total,
		"status_counts":     statusCounts,
		"department_counts": departmentCounts,
		"today":             today,
		"this_week":         thisWeek,
		"this_month":        thisMonth,
		"average_rating":    avgRating,
		"recent_tickets":    recent,
		"top_contractors":   topContractors,
	})
}

// applyTicketFilters narrows a ticket query from the board/export query
// string: status, contractor_id, ward_id, severity, from, to, search.
func applyTicketFilters(query *gorm.DB, r *http.Request) (*gorm.DB, error) {
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		if !complaints.IsValidStatus(status) {
			return nil, fmt.Errorf("unknown status %q", status)
		}
		query = query.Where("status = ?", status)
	}
	if contractorID := q.Get("contractor_id"); contractorID != "" {
		id, err := strconv.Atoi(contractorID)
		if err != nil {
			return nil, fmt.Errorf("invalid contractor_id")
		}
		query = query.Where("contractor_id = ?", id)
	}
	if wardID := q.Get("ward_id"); wardID != "" {
		id, err := strconv.Atoi(wardID)
		if err != nil {
			return nil, fmt.Errorf("invalid ward_id")
		}
		query = query.Where("ward_id = ?", id)
	}
	if severity := q.Get("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}
	if from := q.Get("from"); from != "" {
		day, err := time.Parse("2006-01-02", from)
		if err != nil {
			return nil, fmt.Errorf("invalid from date (want YYYY-MM-DD)")
		}
		query = query.Where("created_at >= ?", day)
	}
	if to := q.Get("to"); to != "" {
		day, err := time.Parse("2006-01-02", to)
		if err != nil {
			return nil, fmt.Errorf("invalid to date (want YYYY-MM-DD)")
		}
		query = query.Where("created_at < ?", day.AddDate(0, 0, 1))
	}
	if search := q.Get("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("ticket_number ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	return query, nil
}

func DepartmentBoardHandler(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	if department == "" {
		http.Error(w, "department is required", http.StatusBadRequest)
		return
	}

	query := db.DB.Model(&complaints.Ticket{}).Where("department = ?", department)
	query, err := applyTicketFilters(query, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var tickets []complaints.Ticket
	if err := query.Order("created_at DESC").Find(&tickets).Error; err != nil {
		http.Error(w, "Failed to load tickets", http.StatusInternalServerError)
		return
	}

	// Group into lifecycle columns for the board view.
	board := map[string][]complaints.Ticket{
		complaints.StatusSubmitted:  {},
		complaints.StatusAssigned:   {},
		complaints.StatusInProgress: {},
		complaints.StatusResolved:   {},
	}
	for _, t := range tickets {
		board[t.Status] = append(board[t.Status], t)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"department": department,
		"total":      len(tickets),
		"board":      board,
	})
}

func loadTicketByNumber(w http.ResponseWriter, r *http.Request) (*complaints.Ticket, bool) {
	ticketNumber := chi.URLParam(r, "ticketNumber")

	var ticket complaints.Ticket
	err := db.DB.Preload("Complaint").First(&ticket, "ticket_number = ?", ticketNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Ticket not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "Failed to look up ticket", http.StatusInternalServerError)
		return nil, false
	}
	return &ticket, true
}

func TicketDetailHandler(w http.ResponseWriter, r *http.Request) {
	ticket, ok := loadTicketByNumber(w, r)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"ticket":    ticket,
		"complaint": ticket.Complaint,
	}

	if ticket.ContractorID != nil {
		var contractor registry.Contractor
		if err := db.DB.First(&contractor, *ticket.ContractorID).Error; err == nil {
			resp["contractor"] = contractor
		}
	}
	if ticket.WardID != nil {
		var ward registry.Ward
		if err := db.DB.First(&ward, *ticket.WardID).Error; err == nil {
			resp["ward"] = ward
		}
	}

	var completions []TicketCompletion
	db.DB.Where("ticket_id = ?", ticket.ID).Order("created_at DESC").Find(&completions)
	resp["completions"] = completions

	var notes []complaints.TicketNote
	db.DB.Where("ticket_id = ?", ticket.ID).Order("created_at DESC").Find(&notes)
	resp["notes"] = notes

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func applyStatus(tx *gorm.DB, ticket *complaints.Ticket, status, authorID string) error {
	oldStatus := ticket.Status

	updates := map[string]interface{}{"status": status}
	if status == complaints.StatusResolved {
		now := time.Now()
		updates["resolved_at"] = &now
	}
	if err := tx.Model(ticket).Updates(updates).Error; err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	note := complaints.TicketNote{
		TicketID: ticket.ID,
		NoteType: complaints.NoteStatusChange,
		Content:  fmt.Sprintf("Status changed from %s to %s", oldStatus, status),
		AuthorID: authorID,
	}
	if err := tx.Create(&note).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	ticket, ok := loadTicketByNumber(w, r)
	if !ok {
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	if !complaints.IsValidStatus(req.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	authorID, _ := utils.GetUserIDFromContext(r.Context())

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return applyStatus(tx, ticket, req.Status, authorID)
	})
	if err != nil {
		log.Printf("[adminportal] status update failed: %v", err)
		http.Error(w, "Failed to update status", http.StatusInternalServerError)
		return
	}

	Notify(NotifyStatusChange,
		fmt.Sprintf("Ticket %s moved to %s", ticket.TicketNumber, req.Status),
		&ticket.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"ticket_number": ticket.TicketNumber,
		"status":        req.Status,
	})
}

type assignRequest struct {
	ContractorID *uint `json:"contractor_id"`
	WardID       *uint `json:"ward_id"`
}

func applyAssignment(tx *gorm.DB, ticket *complaints.Ticket, req assignRequest, authorID string) error {
	updates := map[string]interface{}{}
	noteContent := ""

	if req.ContractorID != nil {
		var contractor registry.Contractor
		if err := tx.First(&contractor, *req.ContractorID).Error; err != nil {
			return fmt.Errorf("contractor %d not found", *req.ContractorID)
		}
		updates["contractor_id"] = *req.ContractorID
		noteContent = "Assigned to contractor " + contractor.Name

		// First assignment advances a fresh ticket.
		if ticket.Status == complaints.StatusSubmitted {
			updates["status"] = complaints.StatusAssigned
		}
	}
	if req.WardID != nil {
		var ward registry.Ward
		if err := tx.First(&ward, *req.WardID).Error; err != nil {
			return fmt.Errorf("ward %d not found", *req.WardID)
		}
		updates["ward_id"] = *req.WardID
		if noteContent != "" {
			noteContent += ", ward " + ward.WardNumber
		} else {
			noteContent = "Routed to ward " + ward.WardNumber + " " + ward.WardName
		}
	}

	if len(updates) == 0 {
		return fmt.Errorf("contractor_id or ward_id required")
	}

	if err := tx.Model(ticket).Updates(updates).Error; err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}

	note := complaints.TicketNote{
		TicketID: ticket.ID,
		NoteType: complaints.NoteAssignment,
		Content:  noteContent,
		AuthorID: authorID,
	}
	if err := tx.Create(&note).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func AssignHandler(w http.ResponseWriter, r *http.Request) {
	ticket, ok := loadTicketByNumber(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	authorID, _ := utils.GetUserIDFromContext(r.Context())

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return applyAssignment(tx, ticket, req, authorID)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"ticket_number": ticket.TicketNumber,
		"message":       "Assignment updated",
	})
}

type noteRequest struct {
	Content string `json:"content"`
}

func AddNoteHandler(w http.ResponseWriter, r *http.Request) {
	ticket, ok := loadTicketByNumber(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, "Note content is required", http.StatusBadRequest)
		return
	}

	authorID, _ := utils.GetUserIDFromContext(r.Context())
	note := complaints.TicketNote{
		TicketID: ticket.ID,
		NoteType: complaints.NoteComment,
		Content:  req.Content,
		AuthorID: authorID,
	}
	if err := db.DB.Create(&note).Error; err != nil {
		http.Error(w, "Failed to save note", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(note)
}

type bulkAssignRequest struct {
	TicketNumbers []string `json:"ticket_numbers"`
	ContractorID  *uint    `json:"contractor_id"`
	WardID        *uint    `json:"ward_id"`
}

func BulkAssignHandler(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.TicketNumbers) == 0 {
		http.Error(w, "ticket_numbers required", http.StatusBadRequest)
		return
	}

	authorID, _ := utils.GetUserIDFromContext(r.Context())
	updated := 0

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		for _, number := range req.TicketNumbers {
			var ticket complaints.Ticket
			if err := tx.First(&ticket, "ticket_number = ?", number).Error; err != nil {
				return fmt.Errorf("ticket %s not found", number)
			}
			if err := applyAssignment(tx, &ticket, assignRequest{ContractorID: req.ContractorID, WardID: req.WardID}, authorID); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"updated": updated})
}

type bulkStatusRequest struct {
	TicketNumbers []string `json:"ticket_numbers"`
	Status        string   `json:"status"`
}

func BulkStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.TicketNumbers) == 0 {
		http.Error(w, "ticket_numbers required", http.StatusBadRequest)
		return
	}
	if !complaints.IsValidStatus(req.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	authorID, _ := utils.GetUserIDFromContext(r.Context())
	updated := 0

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		for _, number := range req.TicketNumbers {
			var ticket complaints.Ticket
			if err := tx.First(&ticket, "ticket_number = ?", number).Error; err != nil {
				return fmt.Errorf("ticket %s not found", number)
			}
			if err := applyStatus(tx, &ticket, req.Status, authorID); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"updated": updated})
}

func ExportCSVHandler(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&complaints.Ticket{})
	if department := r.URL.Query().Get("department"); department != "" {
		query = query.Where("department = ?", department)
	}
	query, err := applyTicketFilters(query, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var tickets []complaints.Ticket
	if err := query.Preload("Complaint").Order("created_at DESC").Find(&tickets).Error; err != nil {
		http.Error(w, "Failed to load tickets", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="tickets.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{
		"ticket_number", "status", "category", "department", "severity",
		"street", "area", "postal_code", "rating", "created_at", "resolved_at",
	})
	for _, t := range tickets {
		rating := ""
		if t.Rating != nil {
			rating = strconv.Itoa(*t.Rating)
		}
		resolvedAt := ""
		if t.ResolvedAt != nil {
			resolvedAt = t.ResolvedAt.Format(time.RFC3339)
		}
		cw.Write([]string{
			t.TicketNumber, t.Status, t.Category, t.Department, t.Severity,
			t.Complaint.Street, t.Complaint.Area, t.Complaint.PostalCode,
			rating, t.CreatedAt.Format(time.RFC3339), resolvedAt,
		})
	}
	cw.Flush()
}

func NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&Notification{})
	if r.URL.Query().Get("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []Notification
	if err := query.Order("created_at DESC").Limit(50).Find(&notifications).Error; err != nil {
		http.Error(w, "Failed to load notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid notification id", http.StatusBadRequest)
		return
	}

	result := db.DB.Model(&Notification{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		http.Error(w, "Failed to update notification", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Notification marked read")
}

func PredictiveReportHandler(w http.ResponseWriter, r *http.Request) {
	since := time.Now().AddDate(0, 0, -30)

	var tickets []complaints.Ticket
	if err := db.DB.Where("created_at >= ?", since).Order("created_at").Find(&tickets).Error; err != nil {
		http.Error(w, "Failed to load tickets", http.StatusInternalServerError)
		return
	}
	if len(tickets) == 0 {
		http.Error(w, "No tickets in the last 30 days", http.StatusNotFound)
		return
	}

	// Resolve ward labels once.
	wardsByID := map[uint]registry.Ward{}
	var wards []registry.Ward
	db.DB.Find(&wards)
	for _, ward := range wards {
		wardsByID[ward.ID] = ward
	}

	summaries := make([]aigateway.TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		summary := aigateway.TicketSummary{
			TicketNumber: t.TicketNumber,
			Category:     t.Category,
			Department:   t.Department,
			Severity:     t.Severity,
			Status:       t.Status,
			CreatedAt:    t.CreatedAt.Format(time.RFC3339),
		}
		if t.WardID != nil {
			if ward, ok := wardsByID[*t.WardID]; ok {
				summary.WardNumber = ward.WardNumber
				summary.WardName = ward.WardName
			}
		}
		summaries = append(summaries, summary)
	}

	report, err := Gateway.PredictReport(r.Context(), summaries)
	if err != nil {
		log.Printf("[adminportal] predictive report failed: %v", err)
		http.Error(w, "Report generation unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
