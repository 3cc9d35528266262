package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TicketSummary mirrors the slimmed ticket shape the backend sends.
type TicketSummary struct {
	TicketNumber string `json:"ticket_number"`
	Category     string `json:"category"`
	Department   string `json:"department"`
	Severity     string `json:"severity"`
	Status       string `json:"status"`
	WardNumber   string `json:"ward_number,omitempty"`
	WardName     string `json:"ward_name,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// PredictResult carries the generated report.
type PredictResult struct {
	ReportHTML  string `json:"report_html"`
	GeneratedAt string `json:"generated_at"`
}

// Predict generates a single-line HTML analytics report over recent tickets.
func (s *Service) Predict(ctx context.Context, tickets []TicketSummary) (*PredictResult, error) {
	if len(tickets) == 0 {
		return nil, fmt.Errorf("no tickets to analyze")
	}

	data, err := json.Marshal(tickets)
	if err != nil {
		return nil, fmt.Errorf("marshal tickets: %w", err)
	}

	raw, err := s.model.GenerateContent(ctx, fmt.Sprintf(predictPrompt, string(data)))
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	return &PredictResult{
		ReportHTML:  flattenHTML(raw),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// flattenHTML strips stray code fences and collapses the response onto one
// line, which is how the admin portal embeds it.
func flattenHTML(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```html")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}
