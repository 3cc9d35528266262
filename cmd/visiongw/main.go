package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/CivicSetu/CS-Backend/internal/vision"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg := vision.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[visiongw] %v", err)
	}

	service, err := vision.NewService(cfg)
	if err != nil {
		log.Fatalf("[visiongw] %v", err)
	}

	port := os.Getenv("VISION_PORT")
	if port == "" {
		port = "8001"
	}

	fmt.Printf("Vision gateway listening on port :%s...\n", port)

	http.ListenAndServe("0.0.0.0:"+port, vision.SetupRoutes(service))
}
