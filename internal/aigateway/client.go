package aigateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// Client talks to the vision gateway service over REST.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client. baseURL defaults to the
// VISION_GATEWAY_URL env var, falling back to localhost.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("VISION_GATEWAY_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Issue is one detected problem in a complaint photo.
type Issue struct {
	Category        string   `json:"category"`
	Department      string   `json:"department"`
	Severity        string   `json:"severity"`
	Description     string   `json:"description"`
	SuggestedTools  []string `json:"suggested_tools"`
	SafetyEquipment []string `json:"safety_equipment"`
}

// AnalyzeResult is the gateway's verdict on a submitted complaint photo.
type AnalyzeResult struct {
	IsValid    bool    `json:"is_valid"`
	Reason     string  `json:"reason,omitempty"`
	WardNumber string  `json:"ward_number,omitempty"`
	WardName   string  `json:"ward_name,omitempty"`
	Issues     []Issue `json:"issues"`
}

type analyzeRequest struct {
	ImageBase64 string  `json:"image_base64"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// VerifyResult reports whether the after photo shows the reported issue fixed.
type VerifyResult struct {
	WorkCompleted bool   `json:"work_completed"`
	Message       string `json:"message"`
}

type verifyRequest struct {
	BeforeImageBase64 string `json:"before_image_base64"`
	AfterImageBase64  string `json:"after_image_base64"`
	Category          string `json:"category"`
}

// TicketSummary is the slimmed-down ticket shape sent to the predict endpoint.
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

// PredictResult carries the generated analytics report.
type PredictResult struct {
	ReportHTML  string `json:"report_html"`
	GeneratedAt string `json:"generated_at"`
}

type predictRequest struct {
	Tickets []TicketSummary `json:"tickets"`
}

// EncodeImage base64-encodes raw image bytes for the gateway payload.
func EncodeImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// AnalyzeComplaint sends a complaint photo with its GPS fix for classification.
func (c *Client) AnalyzeComplaint(ctx context.Context, imageData []byte, lat, lng float64) (*AnalyzeResult, error) {
	req := analyzeRequest{
		ImageBase64: EncodeImage(imageData),
		Latitude:    lat,
		Longitude:   lng,
	}

	var result AnalyzeResult
	if err := c.post(ctx, "/api/v1/analyze/complaint", req, &result); err != nil {
		return nil, fmt.Errorf("analyze complaint: %w", err)
	}
	return &result, nil
}

// VerifyCompletion compares before/after photos of a work site.
func (c *Client) VerifyCompletion(ctx context.Context, beforeImage, afterImage []byte, category string) (*VerifyResult, error) {
	req := verifyRequest{
		BeforeImageBase64: EncodeImage(beforeImage),
		AfterImageBase64:  EncodeImage(afterImage),
		Category:          category,
	}

	var result VerifyResult
	if err := c.post(ctx, "/api/v1/verify/completion", req, &result); err != nil {
		return nil, fmt.Errorf("verify completion: %w", err)
	}
	return &result, nil
}

// PredictReport asks the gateway for an analytics report over recent tickets.
func (c *Client) PredictReport(ctx context.Context, tickets []TicketSummary) (*PredictResult, error) {
	req := predictRequest{Tickets: tickets}

	var result PredictResult
	if err := c.post(ctx, "/api/v1/analytics/predict", req, &result); err != nil {
		return nil, fmt.Errorf("predict report: %w", err)
	}
	return &result, nil
}

// HealthCheck verifies the gateway is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway status %d", resp.StatusCode)
	}
	return nil
}

// maxAttempts covers transient gateway restarts; the model call itself is slow
// enough that we don't retry aggressively.
const maxAttempts = 2

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("[aigateway] retrying %s (attempt %d): %v", path, attempt, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("gateway request: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("gateway status %d for %s", resp.StatusCode, path)
			// Client errors won't improve on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return lastErr
			}
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("decode response: %w", err)
			continue
		}
		return nil
	}
	return lastErr
}
