package vision

import (
	"errors"
	"os"
	"strings"
)

// Config holds configuration for the vision gateway service.
type Config struct {
	// GeminiKey is the API key for the hosted model.
	GeminiKey string

	// ModelName selects the Gemini model variant.
	ModelName string

	// WardGeoJSONPath points at the ward boundary dataset.
	WardGeoJSONPath string
}

// DefaultModelName is the Gemini variant used unless MODEL_NAME overrides it.
const DefaultModelName = "gemini-2.5-flash"

// DefaultWardGeoJSONPath is where the seed data ships the ward boundaries.
const DefaultWardGeoJSONPath = "seeds/wards.geojson"

// ErrMissingGeminiKey is returned when GEMINI_API_KEY is unset.
var ErrMissingGeminiKey = errors.New("GEMINI_API_KEY environment variable is required")

// LoadFromEnv loads gateway configuration from environment variables.
//
// Environment variables:
//   - GEMINI_API_KEY: API key for the hosted model (required)
//   - MODEL_NAME: Gemini model variant (default: gemini-2.5-flash)
//   - WARD_GEOJSON_PATH: ward boundary dataset (default: seeds/wards.geojson)
func LoadFromEnv() Config {
	model := strings.TrimSpace(os.Getenv("MODEL_NAME"))
	if model == "" {
		model = DefaultModelName
	}

	wardPath := strings.TrimSpace(os.Getenv("WARD_GEOJSON_PATH"))
	if wardPath == "" {
		wardPath = DefaultWardGeoJSONPath
	}

	return Config{
		GeminiKey:       os.Getenv("GEMINI_API_KEY"),
		ModelName:       model,
		WardGeoJSONPath: wardPath,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.GeminiKey == "" {
		return ErrMissingGeminiKey
	}
	return nil
}
