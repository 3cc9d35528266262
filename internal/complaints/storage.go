package complaints

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// mediaRoot returns the base directory for uploaded files. MEDIA_ROOT lets
// deployments point at a mounted volume.
func mediaRoot() string {
	if root := os.Getenv("MEDIA_ROOT"); root != "" {
		return root
	}
	return "media"
}

// SaveComplaintImage writes a complaint photo under
// media/complaints/YYYY/MM/DD/<session>/ and returns the stored path.
func SaveComplaintImage(sessionID string, data []byte, ext string, now time.Time) (string, error) {
	dir := filepath.Join(mediaRoot(), "complaints", now.Format("2006/01/02"), sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	path := filepath.Join(dir, "photo"+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

// SaveCompletionImage writes a contractor's after photo next to the original
// complaint photo layout, under a completions subtree.
func SaveCompletionImage(ticketNumber string, data []byte, ext string, now time.Time) (string, error) {
	dir := filepath.Join(mediaRoot(), "completions", now.Format("2006/01/02"), ticketNumber)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	path := filepath.Join(dir, "after"+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

// RemoveComplaintImage deletes a stored photo, tolerating already-gone files.
func RemoveComplaintImage(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[complaints] failed to remove image %s: %v", path, err)
	}
}
