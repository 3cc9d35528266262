package adminportal

import (
	"log"
	"time"

	"github.com/CivicSetu/CS-Backend/internal/db"
)

// Notification types surfaced on the staff dashboard.
const (
	NotifyStatusChange   = "STATUS_CHANGE"
	NotifyAIVerification = "AI_VERIFICATION"
	NotifyCompletion     = "COMPLETION"
)

// Notification is a staff-facing event feed entry.
type Notification struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	NotificationType string    `gorm:"not null" json:"notification_type"`
	Message          string    `gorm:"not null" json:"message"`
	TicketID         *uint     `gorm:"index" json:"ticket_id"`
	IsRead           bool      `gorm:"default:false" json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

// TicketCompletion records a contractor's completion submission: the after
// photo, where they stood when they took it, and the AI verdict.
type TicketCompletion struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TicketID       uint      `gorm:"not null;index" json:"ticket_id"`
	AfterImagePath string    `json:"after_image_path"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DistanceMeters float64   `json:"distance_meters"`
	AIVerified     *bool     `json:"ai_verified"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Notification) TableName() string     { return "admin.notifications" }
func (TicketCompletion) TableName() string { return "admin.ticket_completions" }

// Notify appends an event to the staff feed. Failures are logged, never
// surfaced: notifications are best effort.
func Notify(notificationType, message string, ticketID *uint) {
	n := Notification{
		NotificationType: notificationType,
		Message:          message,
		TicketID:         ticketID,
	}
	if err := db.DB.Create(&n).Error; err != nil {
		log.Printf("[adminportal] failed to create notification: %v", err)
	}
}
