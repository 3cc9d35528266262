package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/CivicSetu/CS-Backend/internal/vision/gemini"
	"github.com/CivicSetu/CS-Backend/internal/vision/respjson"
)

// departmentByCategory routes each issue category to its municipal department.
var departmentByCategory = map[string]string{
	"Garbage/Waste accumulation":       "Sanitation Department",
	"Manholes/drainage opening damage": "Roads & Infrastructure",
	"Water leakage":                    "Water Supply Department",
	"Drainage overflow":                "Drainage Department",
}

// toolsByCategory and safetyByCategory are the static field-crew suggestions
// attached to each issue.
var toolsByCategory = map[string][]string{
	"Garbage/Waste accumulation":       {"Shovels", "Rakes", "Garbage collection truck", "Bin liners"},
	"Manholes/drainage opening damage": {"Replacement manhole cover", "Crowbar", "Cement mix", "Barricades"},
	"Water leakage":                    {"Pipe wrench", "Replacement piping", "Sealant", "Water pump"},
	"Drainage overflow":                {"Drain rods", "Suction machine", "High-pressure jetting unit"},
}

var safetyByCategory = map[string][]string{
	"Garbage/Waste accumulation":       {"Gloves", "Face mask", "Safety boots"},
	"Manholes/drainage opening damage": {"Hard hat", "High-visibility vest", "Safety harness"},
	"Water leakage":                    {"Gloves", "Waterproof boots"},
	"Drainage overflow":                {"Gas detector", "Gloves", "Face mask", "Waterproof suit"},
}

var validSeverities = map[string]bool{"Low": true, "Medium": true, "High": true}

// normalizeSeverity canonicalizes model output like "HIGH" or "medium",
// defaulting anything unexpected to Medium.
func normalizeSeverity(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Medium"
	}
	severity := strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:])
	if !validSeverities[severity] {
		return "Medium"
	}
	return severity
}

// Issue is one classified problem with its routing and crew suggestions.
type Issue struct {
	Category        string   `json:"category"`
	Department      string   `json:"department"`
	Severity        string   `json:"severity"`
	Description     string   `json:"description"`
	SuggestedTools  []string `json:"suggested_tools"`
	SafetyEquipment []string `json:"safety_equipment"`
}

// ClassifyResult is the gateway's full verdict on a complaint photo.
type ClassifyResult struct {
	IsValid    bool    `json:"is_valid"`
	Reason     string  `json:"reason,omitempty"`
	WardNumber string  `json:"ward_number,omitempty"`
	WardName   string  `json:"ward_name,omitempty"`
	Issues     []Issue `json:"issues"`
}

// modelClassifyResponse is what we ask the model to emit.
type modelClassifyResponse struct {
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason"`
	Issues  []struct {
		Category    string `json:"category"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
	} `json:"issues"`
}

// Classify validates and classifies a complaint photo, resolving the ward
// from the GPS fix.
func (s *Service) Classify(ctx context.Context, imageData []byte, lat, lng float64) (*ClassifyResult, error) {
	mime, err := sniffMIME(imageData)
	if err != nil {
		return nil, err
	}

	raw, err := s.model.GenerateContent(ctx, classifyPrompt, gemini.Image{MIMEType: mime, Data: imageData})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	var modelResp modelClassifyResponse
	if err := respjson.Unmarshal(raw, &modelResp); err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	if !modelResp.IsValid {
		reason := modelResp.Reason
		if reason == "" {
			reason = "No recognizable civic issue in the photo"
		}
		return &ClassifyResult{IsValid: false, Reason: reason, Issues: []Issue{}}, nil
	}

	// Keep only issues in the closed category set; the model occasionally
	// invents categories despite the prompt.
	issues := make([]Issue, 0, len(modelResp.Issues))
	for _, mi := range modelResp.Issues {
		category := strings.TrimSpace(mi.Category)
		department, ok := departmentByCategory[category]
		if !ok {
			continue
		}

		severity := normalizeSeverity(mi.Severity)

		issues = append(issues, Issue{
			Category:        category,
			Department:      department,
			Severity:        severity,
			Description:     mi.Description,
			SuggestedTools:  toolsByCategory[category],
			SafetyEquipment: safetyByCategory[category],
		})
	}

	if len(issues) == 0 {
		return &ClassifyResult{
			IsValid: false,
			Reason:  "No recognizable civic issue in the photo",
			Issues:  []Issue{},
		}, nil
	}

	wardNumber, wardName := s.locateWard(lat, lng)
	return &ClassifyResult{
		IsValid:    true,
		WardNumber: wardNumber,
		WardName:   wardName,
		Issues:     issues,
	}, nil
}
