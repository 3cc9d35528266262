package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CivicSetu/CS-Backend/internal/vision/gemini"
	"github.com/CivicSetu/CS-Backend/internal/vision/wardmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel returns canned responses and records what it was asked.
type fakeModel struct {
	response string
	err      error
	prompts  []string
	images   [][]gemini.Image
}

func (f *fakeModel) GenerateContent(_ context.Context, prompt string, images ...gemini.Image) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, images)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const wardFixture = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"name": "48 RAMOL HATHIJAN"},
    "geometry": {
      "type": "Polygon",
      "coordinates": [[[72.0, 23.0], [72.1, 23.0], [72.1, 23.1], [72.0, 23.1], [72.0, 23.0]]]
    }
  }]
}`

func newTestService(t *testing.T, model generator) *Service {
	t.Helper()
	wards, err := wardmap.Parse([]byte(wardFixture))
	require.NoError(t, err)
	return &Service{model: model, wards: wards}
}

func jpeg() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 16)...)
}

func TestClassifyValid(t *testing.T) {
	model := &fakeModel{response: "```json\n" + `{
		"is_valid": true,
		"issues": [
			{"category": "Water leakage", "severity": "HIGH", "description": "Burst pipe flooding the lane"},
			{"category": "Drainage overflow", "severity": "medium", "description": "Open drain overflowing"}
		]
	}` + "\n```"}
	s := newTestService(t, model)

	result, err := s.Classify(context.Background(), jpeg(), 23.05, 72.05)
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.Equal(t, "48", result.WardNumber)
	assert.Equal(t, "Ramol Hathijan", result.WardName)
	require.Len(t, result.Issues, 2)

	assert.Equal(t, "Water Supply Department", result.Issues[0].Department)
	assert.Equal(t, "High", result.Issues[0].Severity)
	assert.NotEmpty(t, result.Issues[0].SuggestedTools)
	assert.NotEmpty(t, result.Issues[0].SafetyEquipment)

	assert.Equal(t, "Drainage Department", result.Issues[1].Department)
	assert.Equal(t, "Medium", result.Issues[1].Severity)
}

func TestClassifyInvalidPhoto(t *testing.T) {
	model := &fakeModel{response: `{"is_valid": false, "reason": "Photo shows an indoor scene"}`}
	s := newTestService(t, model)

	result, err := s.Classify(context.Background(), jpeg(), 23.05, 72.05)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, "Photo shows an indoor scene", result.Reason)
	assert.Empty(t, result.Issues)
}

func TestClassifyDropsUnknownCategories(t *testing.T) {
	model := &fakeModel{response: `{
		"is_valid": true,
		"issues": [{"category": "Broken streetlight", "severity": "High", "description": "x"}]
	}`}
	s := newTestService(t, model)

	result, err := s.Classify(context.Background(), jpeg(), 23.05, 72.05)
	require.NoError(t, err)

	// Nothing in the closed category set survived, so the photo is invalid.
	assert.False(t, result.IsValid)
	assert.Empty(t, result.Issues)
}

func TestClassifyOutsideWards(t *testing.T) {
	model := &fakeModel{response: `{
		"is_valid": true,
		"issues": [{"category": "Water leakage", "severity": "Low", "description": "x"}]
	}`}
	s := newTestService(t, model)

	result, err := s.Classify(context.Background(), jpeg(), 10.0, 10.0)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.WardNumber)
}

func TestClassifyRejectsNonImage(t *testing.T) {
	s := newTestService(t, &fakeModel{})
	_, err := s.Classify(context.Background(), []byte("plain text"), 23, 72)
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	model := &fakeModel{response: `{"work_completed": true, "message": "Drain cleared"}`}
	s := newTestService(t, model)

	result, err := s.Verify(context.Background(), jpeg(), jpeg(), "Drainage overflow")
	require.NoError(t, err)
	assert.True(t, result.WorkCompleted)
	assert.Equal(t, "Drain cleared", result.Message)

	// Both images ride along, and the prompt names the category.
	require.Len(t, model.images[0], 2)
	assert.Contains(t, model.prompts[0], "Drainage overflow")
}

func TestVerifyModelFailure(t *testing.T) {
	s := newTestService(t, &fakeModel{err: errors.New("quota exceeded")})
	_, err := s.Verify(context.Background(), jpeg(), jpeg(), "Water leakage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestPredictFlattensReport(t *testing.T) {
	model := &fakeModel{response: "```html\n<b>Summary</b><br>\n<ul><li>Sanitation leads complaints</li></ul>\n```"}
	s := newTestService(t, model)

	result, err := s.Predict(context.Background(), []TicketSummary{
		{TicketNumber: "CMP-20250601-001", Department: "Sanitation Department"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<b>Summary</b><br> <ul><li>Sanitation leads complaints</li></ul>", result.ReportHTML)
	assert.NotEmpty(t, result.GeneratedAt)
	assert.NotContains(t, result.ReportHTML, "\n")
}

func TestPredictRequiresTickets(t *testing.T) {
	s := newTestService(t, &fakeModel{})
	_, err := s.Predict(context.Background(), nil)
	require.Error(t, err)
}

func TestAnalyzeHandler(t *testing.T) {
	model := &fakeModel{response: `{"is_valid": true, "issues": [{"category": "Water leakage", "severity": "High", "description": "x"}]}`}
	s := newTestService(t, model)
	server := httptest.NewServer(SetupRoutes(s))
	defer server.Close()

	body, _ := json.Marshal(map[string]interface{}{
		"image_base64": base64.StdEncoding.EncodeToString(jpeg()),
		"latitude":     23.05,
		"longitude":    72.05,
	})
	resp, err := http.Post(server.URL+"/api/v1/analyze/complaint", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result ClassifyResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.IsValid)
	assert.Equal(t, "48", result.WardNumber)
}

func TestAnalyzeHandlerRejectsMissingImage(t *testing.T) {
	s := newTestService(t, &fakeModel{})
	server := httptest.NewServer(SetupRoutes(s))
	defer server.Close()

	body, _ := json.Marshal(map[string]interface{}{"latitude": 1.0, "longitude": 2.0})
	resp, err := http.Post(server.URL+"/api/v1/analyze/complaint", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	s := newTestService(t, &fakeModel{})
	server := httptest.NewServer(SetupRoutes(s))
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
