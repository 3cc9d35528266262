package vision

import (
	"context"
	"fmt"

	"github.com/CivicSetu/CS-Backend/internal/vision/gemini"
	"github.com/CivicSetu/CS-Backend/internal/vision/respjson"
)

// VerifyResult is the model's verdict on a before/after photo pair.
type VerifyResult struct {
	WorkCompleted bool   `json:"work_completed"`
	Message       string `json:"message"`
}

// Verify compares the complaint photo with the contractor's after photo.
func (s *Service) Verify(ctx context.Context, beforeImage, afterImage []byte, category string) (*VerifyResult, error) {
	beforeMIME, err := sniffMIME(beforeImage)
	if err != nil {
		return nil, fmt.Errorf("before image: %w", err)
	}
	afterMIME, err := sniffMIME(afterImage)
	if err != nil {
		return nil, fmt.Errorf("after image: %w", err)
	}

	prompt := fmt.Sprintf(verifyPrompt, category)
	raw, err := s.model.GenerateContent(ctx, prompt,
		gemini.Image{MIMEType: beforeMIME, Data: beforeImage},
		gemini.Image{MIMEType: afterMIME, Data: afterImage})
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	var result VerifyResult
	if err := respjson.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	return &result, nil
}
