package contractorportal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/CivicSetu/CS-Backend/internal/adminportal"
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

func Init() {
	Gateway = aigateway.NewClient("")
}

// contractorFromContext resolves the logged-in user to their contractor
// profile. Writes the error response itself on failure.
func contractorFromContext(w http.ResponseWriter, r *http.Request) (*registry.Contractor, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	var contractor registry.Contractor
	err := db.DB.First(&contractor, "user_id = ?", userID).Error
	if err != nil {
		http.Error(w, "No contractor profile for this account", http.StatusForbidden)
		return nil, false
	}
	return &contractor, true
}

func DashboardHandler(w http.ResponseWriter, r *http.Request) {
	contractor, ok := contractorFromContext(w, r)
	if !ok {
		return
	}

	query := db.DB.Model(&complaints.Ticket{}).Where("contractor_id = ?", contractor.ID)

	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		if !complaints.IsValidStatus(status) {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}
		query = query.Where("status = ?", status)
	}
	if severity := q.Get("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}
	if from := q.Get("from"); from != "" {
		day, err := time.Parse("2006-01-02", from)
		if err != nil {
			http.Error(w, "invalid from date (want YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		query = query.Where("created_at >= ?", day)
	}
	if search := q.Get("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("ticket_number ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var tickets []complaints.Ticket
	if err := query.Order("created_at DESC").Find(&tickets).Error; err != nil {
		http.Error(w, "Failed to load tickets", http.StatusInternalServerError)
		return
	}

	counts := map[string]int{}
	for _, t := range tickets {
		counts[t.Status]++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"contractor": map[string]interface{}{
			"name":           contractor.Name,
			"department":     contractor.Department,
			"average_rating": contractor.AverageRating,
		},
		"counts":  counts,
		"tickets": tickets,
	})
}

// loadOwnTicket fetches a ticket and checks it belongs to the contractor.
func loadOwnTicket(w http.ResponseWriter, r *http.Request, contractor *registry.Contractor) (*complaints.Ticket, bool) {
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

	if ticket.ContractorID == nil || *ticket.ContractorID != contractor.ID {
		http.Error(w, "Ticket is not assigned to you", http.StatusForbidden)
		return nil, false
	}
	return &ticket, true
}

func TicketDetailHandler(w http.ResponseWriter, r *http.Request) {
	contractor, ok := contractorFromContext(w, r)
	if !ok {
		return
	}
	ticket, ok := loadOwnTicket(w, r, contractor)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"ticket":    ticket,
		"complaint": ticket.Complaint,
		"maps_link": fmt.Sprintf("https://www.google.com/maps?q=%f,%f",
			ticket.Complaint.Latitude, ticket.Complaint.Longitude),
	}

	if ticket.WardID != nil {
		var ward registry.Ward
		if err := db.DB.First(&ward, *ticket.WardID).Error; err == nil {
			resp["ward"] = ward
		}
	}

	var completions []adminportal.TicketCompletion
	db.DB.Where("ticket_id = ?", ticket.ID).Order("created_at DESC").Find(&completions)
	resp["completions"] = completions

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func StartWorkHandler(w http.ResponseWriter, r *http.Request) {
	contractor, ok := contractorFromContext(w, r)
	if !ok {
		return
	}
	ticket, ok := loadOwnTicket(w, r, contractor)
	if !ok {
		return
	}

	if ticket.Status != complaints.StatusAssigned {
		http.Error(w, "Only assigned tickets can be started", http.StatusConflict)
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(ticket).Update("status", complaints.StatusInProgress).Error; err != nil {
			return err
		}
		note := complaints.TicketNote{
			TicketID: ticket.ID,
			NoteType: complaints.NoteSystem,
			Content:  fmt.Sprintf("%s started work on site", contractor.Name),
		}
		return tx.Create(&note).Error
	})
	if err != nil {
		log.Printf("[contractorportal] start work failed: %v", err)
		http.Error(w, "Failed to start work", http.StatusInternalServerError)
		return
	}

	adminportal.Notify(adminportal.NotifyStatusChange,
		fmt.Sprintf("Ticket %s: %s started work", ticket.TicketNumber, contractor.Name),
		&ticket.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"ticket_number": ticket.TicketNumber,
		"status":        complaints.StatusInProgress,
	})
}

// maxCompletionUpload bounds the multipart form, slightly above the image cap
// to leave room for the other fields.
const maxCompletionUpload = complaints.MaxImageBytes + 1<<20

func SubmitCompletionHandler(w http.ResponseWriter, r *http.Request) {
	contractor, ok := contractorFromContext(w, r)
	if !ok {
		return
	}
	ticket, ok := loadOwnTicket(w, r, contractor)
	if !ok {
		return
	}

	if ticket.Status != complaints.StatusInProgress {
		http.Error(w, "Start work before submitting completion", http.StatusConflict)
		return
	}

	if err := r.ParseMultipartForm(maxCompletionUpload); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(r.FormValue("latitude"), 64)
	if err != nil {
		http.Error(w, "latitude is required", http.StatusBadRequest)
		return
	}
	lng, err := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if err != nil {
		http.Error(w, "longitude is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("after_photo")
	if err != nil {
		http.Error(w, "after_photo is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	afterData, err := io.ReadAll(io.LimitReader(file, complaints.MaxImageBytes+1))
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}
	ext, err := complaints.ValidateImage(afterData)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Distance gate: contractors must be at the complaint site.
	distance := HaversineMeters(ticket.Complaint.Latitude, ticket.Complaint.Longitude, lat, lng)
	if radius := CompletionRadiusMeters(); radius > 0 && distance > radius {
		http.Error(w, fmt.Sprintf("You are %s from the complaint site (allowed: %s)",
			FormatDistance(distance), FormatDistance(radius)), http.StatusBadRequest)
		return
	}

	afterPath, err := complaints.SaveCompletionImage(ticket.TicketNumber, afterData, ext, time.Now())
	if err != nil {
		log.Printf("[contractorportal] completion image save failed: %v", err)
		http.Error(w, "Failed to store image", http.StatusInternalServerError)
		return
	}

	// AI verification degrades to manual review, never blocks the submission.
	var aiVerified *bool
	message := "Automatic verification unavailable, pending manual review"

	beforeData, err := os.ReadFile(ticket.Complaint.ImagePath)
	if err != nil {
		log.Printf("[contractorportal] before image missing for %s: %v", ticket.TicketNumber, err)
	} else {
		verdict, err := Gateway.VerifyCompletion(r.Context(), beforeData, afterData, ticket.Category)
		if err != nil {
			log.Printf("[contractorportal] verify failed for %s: %v", ticket.TicketNumber, err)
		} else {
			aiVerified = &verdict.WorkCompleted
			message = verdict.Message
		}
	}

	completion := adminportal.TicketCompletion{
		TicketID:       ticket.ID,
		AfterImagePath: afterPath,
		Latitude:       lat,
		Longitude:      lng,
		DistanceMeters: distance,
		AIVerified:     aiVerified,
		Message:        message,
	}
	if err := db.DB.Create(&completion).Error; err != nil {
		http.Error(w, "Failed to record completion", http.StatusInternalServerError)
		return
	}

	if err := db.DB.Model(ticket).Update("ai_verified", aiVerified).Error; err != nil {
		log.Printf("[contractorportal] ai_verified update failed: %v", err)
	}

	if aiVerified != nil && *aiVerified {
		adminportal.Notify(adminportal.NotifyAIVerification,
			fmt.Sprintf("Ticket %s: AI verified completion by %s", ticket.TicketNumber, contractor.Name),
			&ticket.ID)
	} else {
		adminportal.Notify(adminportal.NotifyCompletion,
			fmt.Sprintf("Ticket %s: completion submitted by %s, awaiting review", ticket.TicketNumber, contractor.Name),
			&ticket.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ticket_number": ticket.TicketNumber,
		"distance":      FormatDistance(distance),
		"ai_verified":   aiVerified,
		"message":       message,
		"completion_id": completion.ID,
		"submitted_at":  completion.CreatedAt,
	})
}
