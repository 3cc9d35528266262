package vision

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
)

type analyzeRequest struct {
	ImageBase64 string  `json:"image_base64"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (s *Service) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	imageData, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(imageData) == 0 {
		http.Error(w, "image_base64 is required", http.StatusUnprocessableEntity)
		return
	}

	result, err := s.Classify(r.Context(), imageData, req.Latitude, req.Longitude)
	if err != nil {
		log.Printf("[vision] classify failed: %v", err)
		http.Error(w, "Classification failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

type verifyRequest struct {
	BeforeImageBase64 string `json:"before_image_base64"`
	AfterImageBase64  string `json:"after_image_base64"`
	Category          string `json:"category"`
}

func (s *Service) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	beforeImage, err := base64.StdEncoding.DecodeString(req.BeforeImageBase64)
	if err != nil || len(beforeImage) == 0 {
		http.Error(w, "before_image_base64 is required", http.StatusUnprocessableEntity)
		return
	}
	afterImage, err := base64.StdEncoding.DecodeString(req.AfterImageBase64)
	if err != nil || len(afterImage) == 0 {
		http.Error(w, "after_image_base64 is required", http.StatusUnprocessableEntity)
		return
	}
	if req.Category == "" {
		http.Error(w, "category is required", http.StatusUnprocessableEntity)
		return
	}

	result, err := s.Verify(r.Context(), beforeImage, afterImage, req.Category)
	if err != nil {
		log.Printf("[vision] verify failed: %v", err)
		http.Error(w, "Verification failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

type predictRequest struct {
	Tickets []TicketSummary `json:"tickets"`
}

func (s *Service) PredictHandler(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	if len(req.Tickets) == 0 {
		http.Error(w, "tickets are required", http.StatusUnprocessableEntity)
		return
	}

	result, err := s.Predict(r.Context(), req.Tickets)
	if err != nil {
		log.Printf("[vision] predict failed: %v", err)
		http.Error(w, "Report generation failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
