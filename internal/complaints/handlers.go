package complaints

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/CivicSetu/CS-Backend/internal/aigateway"
	"github.com/CivicSetu/CS-Backend/internal/complaints/geocoding"
	"github.com/CivicSetu/CS-Backend/internal/db"
	"github.com/CivicSetu/CS-Backend/internal/registry"
	"github.com/CivicSetu/CS-Backend/internal/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Geocoder and Gateway are wired in Init; tests swap them for fakes.
var (
	Geocoder *geocoding.Client
	Gateway  *aigateway.Client
)

type capturePhotoRequest struct {
	Image     string  `json:"image"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func CapturePhotoHandler(w http.ResponseWriter, r *http.Request) {
	var req capturePhotoRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		http.Error(w, "Invalid coordinates", http.StatusBadRequest)
		return
	}
	if req.Latitude == 0 && req.Longitude == 0 {
		http.Error(w, "GPS fix required", http.StatusBadRequest)
		return
	}

	data, ext, err := DecodeImage(req.Image)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionID := utils.GenerateUUID()
	now := time.Now()

	complaint := Complaint{
		SessionID: sessionID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	// Reverse-geocode best effort: a failed lookup shouldn't block intake.
	if loc, err := Geocoder.Reverse(r.Context(), req.Latitude, req.Longitude); err != nil {
		log.Printf("[complaints] reverse geocode failed for %s: %v", sessionID, err)
	} else {
		complaint.Street = loc.Street
		complaint.Area = loc.Area
		complaint.PostalCode = loc.PostalCode
	}

	path, err := SaveComplaintImage(sessionID, data, ext, now)
	if err != nil {
		log.Printf("[complaints] image save failed: %v", err)
		http.Error(w, "Failed to store image", http.StatusInternalServerError)
		return
	}
	complaint.ImagePath = path

	if err := db.DB.Create(&complaint).Error; err != nil {
		RemoveComplaintImage(path)
		http.Error(w, "Failed to save complaint", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"complaint_id": complaint.ID,
		"session_id":   complaint.SessionID,
		"street":       complaint.Street,
		"area":         complaint.Area,
		"postal_code":  complaint.PostalCode,
	})
}

type submitComplaintRequest struct {
	SessionID   string `json:"session_id"`
	ComplaintID uint   `json:"complaint_id"`
}

type issuedTicket struct {
	TicketNumber string `json:"ticket_number"`
	Category     string `json:"category"`
	Department   string `json:"department"`
	Severity     string `json:"severity"`
}

func SubmitComplaintHandler(w http.ResponseWriter, r *http.Request) {
	var req submitComplaintRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	var complaint Complaint
	query := db.DB.Where("is_submit = ?", false)
	switch {
	case req.SessionID != "":
		err = query.First(&complaint, "session_id = ?", req.SessionID).Error
	case req.ComplaintID != 0:
		err = query.First(&complaint, "id = ?", req.ComplaintID).Error
	default:
		http.Error(w, "session_id or complaint_id required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Draft complaint not found", http.StatusNotFound)
		return
	}

	imageData, err := os.ReadFile(complaint.ImagePath)
	if err != nil {
		log.Printf("[complaints] missing image for %s: %v", complaint.SessionID, err)
		http.Error(w, "Complaint image unavailable", http.StatusInternalServerError)
		return
	}

	analysis, err := Gateway.AnalyzeComplaint(r.Context(), imageData, complaint.Latitude, complaint.Longitude)
	if err != nil {
		log.Printf("[complaints] gateway analyze failed: %v", err)
		http.Error(w, "Image analysis unavailable, try again later", http.StatusBadGateway)
		return
	}

	if !analysis.IsValid {
		// Invalid photo: no tickets, and the draft doesn't linger.
		RemoveComplaintImage(complaint.ImagePath)
		if err := db.DB.Delete(&complaint).Error; err != nil {
			log.Printf("[complaints] failed to delete invalid draft %s: %v", complaint.SessionID, err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"is_valid": false,
			"reason":   analysis.Reason,
		})
		return
	}

	var wardID *uint
	if analysis.WardNumber != "" {
		var ward registry.Ward
		if err := db.DB.First(&ward, "ward_number = ?", analysis.WardNumber).Error; err == nil {
			wardID = &ward.ID
		}
	}

	issued := make([]issuedTicket, 0, len(analysis.Issues))
	now := time.Now()

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		// Guard in the UPDATE itself: the draft was read outside this
		// transaction, so a concurrent submit of the same session could have
		// won the race since. Only the request that flips is_submit issues
		// tickets.
		valid := true
		result := tx.Model(&Complaint{}).
			Where("id = ? AND is_submit = ?", complaint.ID, false).
			Updates(map[string]interface{}{"is_submit": true, "is_valid": &valid})
		if result.Error != nil {
			return fmt.Errorf("mark submitted: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errAlreadySubmitted
		}

		for _, issue := range analysis.Issues {
			number, err := NextTicketNumber(tx, now)
			if err != nil {
				return err
			}

			ticket := Ticket{
				TicketNumber:    number,
				ComplaintID:     complaint.ID,
				Category:        issue.Category,
				Department:      issue.Department,
				Severity:        issue.Severity,
				Description:     issue.Description,
				Status:          StatusSubmitted,
				WardID:          wardID,
				SuggestedTools:  pq.StringArray(issue.SuggestedTools),
				SafetyEquipment: pq.StringArray(issue.SafetyEquipment),
			}
			if err := tx.Create(&ticket).Error; err != nil {
				return fmt.Errorf("create ticket: %w", err)
			}

			issued = append(issued, issuedTicket{
				TicketNumber: ticket.TicketNumber,
				Category:     ticket.Category,
				Department:   ticket.Department,
				Severity:     ticket.Severity,
			})
		}
		return nil
	})
	if errors.Is(err, errAlreadySubmitted) {
		http.Error(w, "Complaint has already been submitted", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("[complaints] ticket issuance failed: %v", err)
		http.Error(w, "Failed to issue tickets", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"is_valid":  true,
		"ward_name": analysis.WardName,
		"tickets":   issued,
	})
}

func TrackTicketHandler(w http.ResponseWriter, r *http.Request) {
	ticketNumber := r.URL.Query().Get("ticket_number")
	if ticketNumber == "" {
		http.Error(w, "ticket_number is required", http.StatusBadRequest)
		return
	}

	var ticket Ticket
	err := db.DB.Preload("Complaint").First(&ticket, "ticket_number = ?", ticketNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Ticket not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to look up ticket", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"ticket_number": ticket.TicketNumber,
		"status":        ticket.Status,
		"category":      ticket.Category,
		"department":    ticket.Department,
		"severity":      ticket.Severity,
		"created_at":    ticket.CreatedAt,
		"image_url":     "/" + ticket.Complaint.ImagePath,
		"location": map[string]interface{}{
			"street":      ticket.Complaint.Street,
			"area":        ticket.Complaint.Area,
			"postal_code": ticket.Complaint.PostalCode,
			"latitude":    ticket.Complaint.Latitude,
			"longitude":   ticket.Complaint.Longitude,
		},
	}

	// Progressive disclosure: contractor from ASSIGNED, ward from IN_PROGRESS.
	if StatusAtLeast(ticket.Status, StatusAssigned) && ticket.ContractorID != nil {
		var contractor registry.Contractor
		if err := db.DB.First(&contractor, *ticket.ContractorID).Error; err == nil {
			resp["contractor"] = map[string]interface{}{
				"name":  contractor.Name,
				"phone": contractor.Phone,
			}
		}
	}
	if StatusAtLeast(ticket.Status, StatusInProgress) && ticket.WardID != nil {
		var ward registry.Ward
		if err := db.DB.First(&ward, *ticket.WardID).Error; err == nil {
			resp["ward"] = map[string]interface{}{
				"ward_number":    ward.WardNumber,
				"ward_name":      ward.WardName,
				"admin_phone":    ward.AdminPhone,
				"office_address": ward.OfficeAddress,
			}
		}
	}
	if ticket.Status == StatusResolved {
		resp["resolved_at"] = ticket.ResolvedAt
		resp["can_rate"] = ticket.Rating == nil
		if ticket.Rating != nil {
			resp["rating"] = *ticket.Rating
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type rateTicketRequest struct {
	TicketNumber string `json:"ticket_number"`
	Rating       int    `json:"rating"`
}

func RateTicketHandler(w http.ResponseWriter, r *http.Request) {
	var req rateTicketRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	if req.Rating < 1 || req.Rating > 5 {
		http.Error(w, "Rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	var ticket Ticket
	err = db.DB.First(&ticket, "ticket_number = ?", req.TicketNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Ticket not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to look up ticket", http.StatusInternalServerError)
		return
	}

	if ticket.Status != StatusResolved {
		http.Error(w, "Ticket is not resolved yet", http.StatusConflict)
		return
	}
	if ticket.Rating != nil {
		http.Error(w, "Ticket has already been rated", http.StatusConflict)
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		// Guard in the UPDATE itself so two concurrent ratings can't both land.
		result := tx.Model(&Ticket{}).
			Where("id = ? AND rating IS NULL", ticket.ID).
			Update("rating", req.Rating)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errAlreadyRated
		}

		if ticket.ContractorID != nil {
			var contractor registry.Contractor
			if err := tx.First(&contractor, *ticket.ContractorID).Error; err != nil {
				return fmt.Errorf("load contractor: %w", err)
			}
			if err := contractor.ApplyRating(tx, req.Rating); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errAlreadyRated) {
		http.Error(w, "Ticket has already been rated", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("[complaints] rating failed: %v", err)
		http.Error(w, "Failed to save rating", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ticket_number": req.TicketNumber,
		"rating":        req.Rating,
	})
}

var (
	errAlreadyRated     = errors.New("ticket already rated")
	errAlreadySubmitted = errors.New("complaint already submitted")
)
