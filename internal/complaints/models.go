package complaints

import (
	"time"

	"github.com/lib/pq"
)

// Ticket lifecycle statuses, in order.
const (
	StatusSubmitted  = "SUBMITTED"
	StatusAssigned   = "ASSIGNED"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
)

// statusRank orders statuses for progressive disclosure on the public
// tracking endpoint.
var statusRank = map[string]int{
	StatusSubmitted:  0,
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusResolved:   3,
}

// IsValidStatus reports whether s is a known lifecycle status.
func IsValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// StatusAtLeast reports whether status has reached floor in the lifecycle.
func StatusAtLeast(status, floor string) bool {
	return statusRank[status] >= statusRank[floor]
}

// Complaint is a citizen's draft report: one photo plus a GPS fix. It stays a
// draft until submitted, and is deleted if the photo turns out invalid.
type Complaint struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  string    `gorm:"not null;unique" json:"session_id"`
	ImagePath  string    `json:"image_path"`
	Street     string    `json:"street"`
	Area       string    `json:"area"`
	PostalCode string    `json:"postal_code"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	IsSubmit   bool      `gorm:"default:false" json:"is_submit"`
	IsValid    *bool     `json:"is_valid"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Ticket is one detected issue from a submitted complaint. A complaint with
// three issues yields three tickets sharing the same complaint reference.
type Ticket struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	TicketNumber    string         `gorm:"not null;unique" json:"ticket_number"`
	ComplaintID     uint           `gorm:"not null;index" json:"complaint_id"`
	Complaint       Complaint      `gorm:"foreignKey:ComplaintID" json:"-"`
	Category        string         `gorm:"not null" json:"category"`
	Department      string         `gorm:"not null" json:"department"`
	Severity        string         `gorm:"not null" json:"severity"`
	Description     string         `json:"description"`
	Status          string         `gorm:"default:'SUBMITTED'" json:"status"`
	ContractorID    *uint          `gorm:"index" json:"contractor_id"`
	WardID          *uint          `gorm:"index" json:"ward_id"`
	SuggestedTools  pq.StringArray `gorm:"type:text[]" json:"suggested_tools"`
	SafetyEquipment pq.StringArray `gorm:"type:text[]" json:"safety_equipment"`
	AIVerified      *bool          `json:"ai_verified"`
	Rating          *int           `json:"rating"`
	ResolvedAt      *time.Time     `json:"resolved_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Note types for the ticket audit trail.
const (
	NoteStatusChange = "STATUS_CHANGE"
	NoteAssignment   = "ASSIGNMENT"
	NoteComment      = "COMMENT"
	NoteSystem       = "SYSTEM"
)

// TicketNote is one audit-trail entry on a ticket.
type TicketNote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TicketID  uint      `gorm:"not null;index" json:"ticket_id"`
	NoteType  string    `gorm:"not null" json:"note_type"`
	Content   string    `gorm:"not null" json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Complaint) TableName() string  { return "complaints.civic_complaints" }
func (Ticket) TableName() string     { return "complaints.tickets" }
func (TicketNote) TableName() string { return "complaints.ticket_notes" }
