package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Result holds the address fields we keep from a reverse-geocode response.
type Result struct {
	Street      string `json:"street"`
	Area        string `json:"area"`
	PostalCode  string `json:"postal_code"`
	DisplayName string `json:"display_name"`
}

// Client wraps the OSM Nominatim reverse-geocoding API. Requests are
// throttled to one per second per the Nominatim usage policy.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a reverse-geocoding client. baseURL defaults to the
// NOMINATIM_URL env var, falling back to the public OSM instance.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("NOMINATIM_URL")
	}
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: "CivicSetu/1.0 (complaint-intake)",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type reverseResponse struct {
	DisplayName string         `json:"display_name"`
	Address     reverseAddress `json:"address"`
	Error       string         `json:"error"`
}

type reverseAddress struct {
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	Residential   string `json:"residential"`
	CityDistrict  string `json:"city_district"`
	Postcode      string `json:"postcode"`
}

const reverseAttempts = 3

// retryBackoff is scaled by the attempt number between retries.
var retryBackoff = time.Second

// Reverse converts a coordinate pair into street/area/postal-code fields.
// Transient failures are retried with a short backoff.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Result, error) {
	var lastErr error
	for attempt := 1; attempt <= reverseAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		result, err := c.reverseOnce(ctx, lat, lng)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("reverse geocode after %d attempts: %w", reverseAttempts, lastErr)
}

func (c *Client) reverseOnce(ctx context.Context, lat, lng float64) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned HTTP %d", resp.StatusCode)
	}

	var rev reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&rev); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if rev.Error != "" {
		return nil, fmt.Errorf("nominatim error: %s", rev.Error)
	}

	return &Result{
		Street:      firstNonEmpty(rev.Address.Road, rev.Address.Neighbourhood, rev.Address.Suburb, rev.Address.Residential),
		Area:        firstNonEmpty(rev.Address.Neighbourhood, rev.Address.Suburb, rev.Address.CityDistrict, rev.Address.Residential),
		PostalCode:  rev.Address.Postcode,
		DisplayName: rev.DisplayName,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
