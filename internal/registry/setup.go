package registry

import (
	"log"

	"github.com/CivicSetu/CS-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "admin"); err != nil {
		log.Fatal("Failed to ensure schema admin: ", err)
	}

	if err := db.DB.AutoMigrate(&Ward{}, &Contractor{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
