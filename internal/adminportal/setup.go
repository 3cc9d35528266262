package adminportal

import (
	"log"

	"github.com/CivicSetu/CS-Backend/internal/aigateway"
	"github.com/CivicSetu/CS-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "admin"); err != nil {
		log.Fatal("Failed to ensure schema admin: ", err)
	}

	if err := db.DB.AutoMigrate(&Notification{}, &TicketCompletion{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	Gateway = aigateway.NewClient("")
}
