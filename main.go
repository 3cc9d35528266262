package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/CivicSetu/CS-Backend/internal/adminportal"
	"github.com/CivicSetu/CS-Backend/internal/auth"
	"github.com/CivicSetu/CS-Backend/internal/complaints"
	"github.com/CivicSetu/CS-Backend/internal/contractorportal"
	"github.com/CivicSetu/CS-Backend/internal/db"
	"github.com/CivicSetu/CS-Backend/internal/middleware"
	"github.com/CivicSetu/CS-Backend/internal/registry"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	auth.Init()
	registry.Init()
	complaints.Init()
	adminportal.Init()
	contractorportal.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/api/user", complaints.SetupRoutes())
	r.Mount("/api/admin", adminportal.SetupRoutes())
	r.Mount("/api/contractor", contractorportal.SetupRoutes())

	// Complaint and completion photos are served straight off disk.
	mediaRoot := os.Getenv("MEDIA_ROOT")
	if mediaRoot == "" {
		mediaRoot = "media"
	}
	fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(mediaRoot)))
	r.Get("/media/*", fileServer.ServeHTTP)

	fmt.Printf("Server listening on port :%s...\n", port)

	http.ListenAndServe("0.0.0.0:"+port, r)
}
