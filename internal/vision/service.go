package vision

import (
	"context"
	"fmt"
	"log"

	"github.com/CivicSetu/CS-Backend/internal/vision/gemini"
	"github.com/CivicSetu/CS-Backend/internal/vision/wardmap"
)

// generator is the slice of the Gemini client the service needs; tests swap
// in a canned implementation.
type generator interface {
	GenerateContent(ctx context.Context, prompt string, images ...gemini.Image) (string, error)
}

// Service implements the gateway operations: classify, verify, predict.
type Service struct {
	model generator
	wards *wardmap.Mapper
}

// NewService wires the Gemini client and the ward boundary dataset. A missing
// ward dataset degrades to no ward resolution rather than failing boot.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wards, err := wardmap.Load(cfg.WardGeoJSONPath)
	if err != nil {
		log.Printf("[vision] ward dataset unavailable (%v), ward resolution disabled", err)
		wards = nil
	} else {
		log.Printf("[vision] loaded %d wards from %s", wards.Count(), cfg.WardGeoJSONPath)
	}

	return &Service{
		model: gemini.NewClient(cfg.GeminiKey, cfg.ModelName, ""),
		wards: wards,
	}, nil
}

// locateWard is nil-safe around a missing mapper.
func (s *Service) locateWard(lat, lng float64) (string, string) {
	if s.wards == nil {
		return "", ""
	}
	number, name, ok := s.wards.Locate(lat, lng)
	if !ok {
		return "", ""
	}
	return number, name
}

func sniffMIME(data []byte) (string, error) {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8:
		return "image/jpeg", nil
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png", nil
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp", nil
	}
	return "", fmt.Errorf("unsupported image format (want JPEG, PNG, or WebP)")
}
