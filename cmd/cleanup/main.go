package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/CivicSetu/CS-Backend/internal/complaints"
	"github.com/CivicSetu/CS-Backend/internal/db"
	"github.com/joho/godotenv"
)

// Purges complaint drafts that were captured but never submitted, along with
// their photos on disk. Run from cron; DRAFT_MAX_AGE_HOURS controls the
// cutoff (default 24).
func main() {
	godotenv.Load(".env.local")
	db.Connect()

	maxAge := 24
	if raw := os.Getenv("DRAFT_MAX_AGE_HOURS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Fatalf("invalid DRAFT_MAX_AGE_HOURS: %q", raw)
		}
		maxAge = parsed
	}
	cutoff := time.Now().Add(-time.Duration(maxAge) * time.Hour)

	var drafts []complaints.Complaint
	err := db.DB.Where("is_submit = ? AND created_at < ?", false, cutoff).Find(&drafts).Error
	if err != nil {
		log.Fatalf("Error loading stale drafts: %v", err)
	}

	removed := 0
	for _, draft := range drafts {
		complaints.RemoveComplaintImage(draft.ImagePath)
		if err := db.DB.Delete(&draft).Error; err != nil {
			log.Printf("Error deleting draft %s: %v", draft.SessionID, err)
			continue
		}
		removed++
	}

	fmt.Printf("✓ Removed %d stale drafts older than %dh\n", removed, maxAge)
}
