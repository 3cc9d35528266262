package complaints

import (
	"log"

	"github.com/CivicSetu/CS-Backend/internal/aigateway"
	"github.com/CivicSetu/CS-Backend/internal/complaints/geocoding"
	"github.com/CivicSetu/CS-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "complaints"); err != nil {
		log.Fatal("Failed to ensure schema complaints: ", err)
	}

	if err := db.DB.AutoMigrate(&Complaint{}, &Ticket{}, &TicketNote{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	// Wired here (not at package init) so godotenv has loaded first.
	Geocoder = geocoding.NewClient("")
	Gateway = aigateway.NewClient("")
}
