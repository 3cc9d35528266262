package complaints

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageBytes caps uploaded complaint photos at 5 MB of decoded data.
const MaxImageBytes = 5 << 20

var allowedImageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// DecodeImage decodes a base64 complaint photo (with or without a data-URL
// prefix), enforces the size cap, and sniffs the content type. Returns the
// raw bytes and a file extension for storage.
func DecodeImage(encoded string) ([]byte, string, error) {
	// Mobile clients send data URLs like "data:image/jpeg;base64,...".
	if idx := strings.Index(encoded, ";base64,"); idx != -1 {
		encoded = encoded[idx+len(";base64,"):]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, "", fmt.Errorf("empty image payload")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image: %w", err)
	}

	ext, err := ValidateImage(data)
	if err != nil {
		return nil, "", err
	}

	return data, ext, nil
}

// ValidateImage enforces the size cap and sniffs the content type of raw
// image bytes, returning a file extension for storage.
func ValidateImage(data []byte) (string, error) {
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("image too large: %d bytes (max %d)", len(data), MaxImageBytes)
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageExts[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %s (want JPEG, PNG, or WebP)", contentType)
	}
	return ext, nil
}
