package main

import (
	"log"

	"github.com/CivicSetu/CS-Backend/internal/adminportal"
	"github.com/CivicSetu/CS-Backend/internal/auth"
	"github.com/CivicSetu/CS-Backend/internal/complaints"
	"github.com/CivicSetu/CS-Backend/internal/db"
	"github.com/CivicSetu/CS-Backend/internal/registry"
	"github.com/CivicSetu/CS-Backend/internal/seeds"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	auth.Init()
	registry.Init()
	complaints.Init()
	adminportal.Init()

	if err := seeds.SeedAll(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
