package registry

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Ward is one administrative ward of the municipal corporation.
type Ward struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WardNumber    string    `gorm:"not null;unique" json:"ward_number"`
	WardName      string    `gorm:"not null" json:"ward_name"`
	AdminName     string    `json:"admin_name"`
	AdminPhone    string    `json:"admin_phone"`
	AdminEmail    string    `json:"admin_email"`
	OfficeAddress string    `json:"office_address"`
	OfficeTiming  string    `json:"office_timing"`
	Zone          string    `json:"zone"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Contractor is a field crew the municipality dispatches tickets to.
type Contractor struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	AssignedArea  string    `json:"assigned_area"`
	Department    string    `json:"department"`
	AverageRating float64   `gorm:"default:0" json:"average_rating"`
	RatingCount   int       `gorm:"default:0" json:"rating_count"`
	UserID        string    `gorm:"index" json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Ward) TableName() string       { return "admin.wards" }
func (Contractor) TableName() string { return "admin.contractors" }

// AddRating folds one new ticket rating into the rolling average in memory.
func (c *Contractor) AddRating(rating int) {
	total := c.AverageRating*float64(c.RatingCount) + float64(rating)
	c.RatingCount++
	c.AverageRating = total / float64(c.RatingCount)
}

// ApplyRating folds one new ticket rating into the contractor's rolling
// average and persists both fields.
func (c *Contractor) ApplyRating(tx *gorm.DB, rating int) error {
	c.AddRating(rating)

	err := tx.Model(c).Updates(map[string]interface{}{
		"average_rating": c.AverageRating,
		"rating_count":   c.RatingCount,
	}).Error
	if err != nil {
		return fmt.Errorf("update contractor rating: %w", err)
	}
	return nil
}
