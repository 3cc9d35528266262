package contractorportal_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CivicSetu/CS-Backend/internal/adminportal"
	"github.com/CivicSetu/CS-Backend/internal/aigateway"
	"github.com/CivicSetu/CS-Backend/internal/auth"
	"github.com/CivicSetu/CS-Backend/internal/complaints"
	"github.com/CivicSetu/CS-Backend/internal/contractorportal"
	"github.com/CivicSetu/CS-Backend/internal/db"
	"github.com/CivicSetu/CS-Backend/internal/registry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var dbAvailable bool
var testServer *httptest.Server
var gatewayStub func(w http.ResponseWriter, r *http.Request)

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env.local")

	if os.Getenv("DATABASE_URL") == "" {
		os.Exit(m.Run())
	}

	mediaDir, err := os.MkdirTemp("", "civicsetu-media")
	if err != nil {
		fmt.Println("temp media dir:", err)
		os.Exit(1)
	}
	defer os.RemoveAll(mediaDir)
	os.Setenv("MEDIA_ROOT", mediaDir)

	db.Connect()
	dbAvailable = true

	auth.Init()
	registry.Init()
	complaints.Init()
	adminportal.Init()
	contractorportal.Init()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gatewayStub != nil {
			gatewayStub(w, r)
			return
		}
		http.Error(w, "no stub configured", http.StatusInternalServerError)
	}))
	defer gateway.Close()
	contractorportal.Gateway = aigateway.NewClient(gateway.URL)

	r := chi.NewRouter()
	r.Mount("/api/contractor", contractorportal.SetupRoutes())
	testServer = httptest.NewServer(r)
	defer testServer.Close()

	os.Exit(m.Run())
}

func requireDB(t *testing.T) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
}

// crew bundles a contractor account, its profile, and a live session cookie.
type crew struct {
	contractor registry.Contractor
	cookie     *http.Cookie
}

func createCrew(t *testing.T) crew {
	t.Helper()
	requireDB(t)

	user := auth.User{
		UserID:   uuid.New().String(),
		Username: "crew_" + uuid.New().String()[:8],
		Role:     "contractor",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	contractor := registry.Contractor{
		Name:       "Crew " + user.Username,
		Department: "Sanitation Department",
		UserID:     user.UserID,
	}
	if err := db.DB.Create(&contractor).Error; err != nil {
		t.Fatalf("create contractor: %v", err)
	}

	session := auth.Session{
		SessionID: uuid.New().String(),
		UserID:    user.UserID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.DB.Create(&session).Error; err != nil {
		t.Fatalf("create session: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("user_id = ?", user.UserID).Delete(&auth.Session{})
		db.DB.Where("id = ?", contractor.ID).Delete(&registry.Contractor{})
		db.DB.Where("user_id = ?", user.UserID).Delete(&auth.User{})
	})

	return crew{
		contractor: contractor,
		cookie:     &http.Cookie{Name: "session_id", Value: session.SessionID},
	}
}

// assignTicket seeds a complaint (with its photo on disk) and an assigned
// ticket for the crew.
func assignTicket(t *testing.T, c crew, status string) complaints.Ticket {
	t.Helper()

	sessionID := uuid.New().String()
	dir := filepath.Join(os.Getenv("MEDIA_ROOT"), "complaints", time.Now().Format("2006/01/02"), sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	imagePath := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(imagePath, append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 16)...), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	complaint := complaints.Complaint{
		SessionID: sessionID,
		ImagePath: imagePath,
		Latitude:  23.0225,
		Longitude: 72.5714,
		IsSubmit:  true,
	}
	if err := db.DB.Create(&complaint).Error; err != nil {
		t.Fatalf("create complaint: %v", err)
	}

	ticket := complaints.Ticket{
		TicketNumber: fmt.Sprintf("CMP-%s-%03d", time.Now().Format("20060102"), 500+int(time.Now().UnixNano()%200)),
		ComplaintID:  complaint.ID,
		Category:     "Garbage/Waste accumulation",
		Department:   "Sanitation Department",
		Severity:     "High",
		Status:       status,
		ContractorID: &c.contractor.ID,
	}
	if err := db.DB.Create(&ticket).Error; err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("ticket_id = ?", ticket.ID).Delete(&adminportal.TicketCompletion{})
		db.DB.Where("ticket_id = ?", ticket.ID).Delete(&adminportal.Notification{})
		db.DB.Where("ticket_id = ?", ticket.ID).Delete(&complaints.TicketNote{})
		db.DB.Where("id = ?", ticket.ID).Delete(&complaints.Ticket{})
		db.DB.Where("id = ?", complaint.ID).Delete(&complaints.Complaint{})
		os.Remove(imagePath)
	})
	return ticket
}

func do(t *testing.T, req *http.Request, cookie *http.Cookie) (*http.Response, string) {
	t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(b)
}

// completionForm builds the multipart body for submit-completion.
func completionForm(t *testing.T, lat, lng float64) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("after_photo", "after.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 16)...))
	mw.WriteField("latitude", fmt.Sprintf("%f", lat))
	mw.WriteField("longitude", fmt.Sprintf("%f", lng))
	mw.Close()

	return &buf, mw.FormDataContentType()
}

func TestDashboardListsOwnTicketsOnly(t *testing.T) {
	c := createCrew(t)
	other := createCrew(t)
	mine := assignTicket(t, c, complaints.StatusAssigned)
	theirs := assignTicket(t, other, complaints.StatusAssigned)

	req, _ := http.NewRequest(http.MethodGet, testServer.URL+"/api/contractor/dashboard", nil)
	resp, body := do(t, req, c.cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, mine.TicketNumber) {
		t.Errorf("expected dashboard to include %s", mine.TicketNumber)
	}
	if strings.Contains(body, theirs.TicketNumber) {
		t.Errorf("dashboard leaked another crew's ticket %s", theirs.TicketNumber)
	}
}

func TestStartWorkTransitions(t *testing.T) {
	c := createCrew(t)
	ticket := assignTicket(t, c, complaints.StatusAssigned)

	req, _ := http.NewRequest(http.MethodPost,
		testServer.URL+"/api/contractor/tickets/"+ticket.TicketNumber+"/start-work", nil)
	resp, body := do(t, req, c.cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", resp.StatusCode, body)
	}

	var stored complaints.Ticket
	db.DB.First(&stored, ticket.ID)
	if stored.Status != complaints.StatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", stored.Status)
	}

	// Starting twice conflicts.
	req, _ = http.NewRequest(http.MethodPost,
		testServer.URL+"/api/contractor/tickets/"+ticket.TicketNumber+"/start-work", nil)
	resp, _ = do(t, req, c.cookie)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on double start, got %d", resp.StatusCode)
	}
}

func TestStartWorkRejectsForeignTicket(t *testing.T) {
	c := createCrew(t)
	other := createCrew(t)
	theirs := assignTicket(t, other, complaints.StatusAssigned)

	req, _ := http.NewRequest(http.MethodPost,
		testServer.URL+"/api/contractor/tickets/"+theirs.TicketNumber+"/start-work", nil)
	resp, _ := do(t, req, c.cookie)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign ticket, got %d", resp.StatusCode)
	}
}

func TestSubmitCompletionVerified(t *testing.T) {
	c := createCrew(t)
	ticket := assignTicket(t, c, complaints.StatusInProgress)

	gatewayStub = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/verify/completion" {
			http.Error(w, "wrong path", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(aigateway.VerifyResult{
			WorkCompleted: true,
			Message:       "Site cleared",
		})
	}

	body, contentType := completionForm(t, 23.0225, 72.5714)
	req, _ := http.NewRequest(http.MethodPost,
		testServer.URL+"/api/contractor/tickets/"+ticket.TicketNumber+"/complete", body)
	req.Header.Set("Content-Type", contentType)

	resp, respBody := do(t, req, c.cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d; body: %s", resp.StatusCode, respBody)
	}

	var completion adminportal.TicketCompletion
	if err := db.DB.Where("ticket_id = ?", ticket.ID).First(&completion).Error; err != nil {
		t.Fatalf("expected completion row: %v", err)
	}
	if completion.AIVerified == nil || !*completion.AIVerified {
		t.Error("expected AI verified completion")
	}
	if completion.AfterImagePath == "" {
		t.Error("expected after image to be stored")
	}

	var stored complaints.Ticket
	db.DB.First(&stored, ticket.ID)
	if stored.AIVerified == nil || !*stored.AIVerified {
		t.Error("expected ticket ai_verified to be set")
	}

	var notif adminportal.Notification
	err := db.DB.Where("ticket_id = ? AND notification_type = ?",
		ticket.ID, adminportal.NotifyAIVerification).First(&notif).Error
	if err != nil {
		t.Error("expected AI_VERIFICATION notification for staff")
	}
}

func TestSubmitCompletionGatewayDownDegradesToManualReview(t *testing.T) {
	c := createCrew(t)
	ticket := assignTicket(t, c, complaints.StatusInProgress)

	gatewayStub = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}

	body, contentType := completionForm(t, 23.0225, 72.5714)
	req, _ := http.NewRequest(http.MethodPost,
		testServer.URL+"/api/contractor/tickets/"+ticket.TicketNumber+"/complete", body)
	req.Header.Set("Content-Type", contentType)

	resp, respBody := do(t, req, c.cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 despite gateway failure, got %d; body: %s", resp.StatusCode, respBody)
	}
	if !strings.Contains(respBody, "manual review") {
		t.Errorf("expected manual review message, got: %s", respBody)
	}

	var completion adminportal.TicketCompletion
	if err := db.DB.Where("ticket_id = ?", ticket.ID).First(&completion).Error; err != nil {
		t.Fatalf("expected completion row even without AI verdict: %v", err)
	}
	if completion.AIVerified != nil {
		t.Error("expected nil AI verdict when gateway is down")
	}
}

func TestSubmitCompletionEnforcesRadius(t *testing.T) {
	c := createCrew(t)
	ticket := assignTicket(t, c, complaints.StatusInProgress)

	t.Setenv("COMPLETION_RADIUS_METERS", "50")

	// Roughly 1.1 km north of the site.
	body, contentType := completionForm(t, 23.0325, 72.5714)
	req, _ := http.NewRequest(http.MethodPost,
		testServer.URL+"/api/contractor/tickets/"+ticket.TicketNumber+"/complete", body)
	req.Header.Set("Content-Type", contentType)

	resp, respBody := do(t, req, c.cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 outside radius, got %d; body: %s", resp.StatusCode, respBody)
	}
	if !strings.Contains(respBody, "from the complaint site") {
		t.Errorf("expected distance message, got: %s", respBody)
	}
}
