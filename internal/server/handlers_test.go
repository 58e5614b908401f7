package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partner-onboarding/internal/common/identity"
	"partner-onboarding/internal/common/logger"
	"partner-onboarding/internal/models"
	"partner-onboarding/internal/notify"
	"partner-onboarding/internal/onboarding"
	"partner-onboarding/internal/onboarding/state"
	"partner-onboarding/internal/onboarding/submit"
	"partner-onboarding/internal/onboarding/upload"
	"partner-onboarding/internal/onboarding/verify"
)

// ==========================
// Fakes
// ==========================

type stubIdentity struct{}

func (stubIdentity) CreateAccount(ctx context.Context, email, password string, attrs identity.Attributes) (string, error) {
	return "identity-42", nil
}
func (stubIdentity) CurrentIdentity(ctx context.Context) (string, error)          { return "", nil }
func (stubIdentity) RequestPasswordReset(ctx context.Context, email string) error { return nil }

type stubApplications struct{ inserted int }

func (s *stubApplications) Insert(ctx context.Context, app *models.Application) (*models.Application, error) {
	s.inserted++
	stored := *app
	stored.ID = "app-1"
	stored.PartnerID = "partner-1"
	return &stored, nil
}

type stubProfiles struct{}

func (stubProfiles) ApplyPatch(ctx context.Context, patch models.ProfilePatch) error { return nil }

type stubMailer struct{}

func (stubMailer) SendSubmissionConfirmation(ctx context.Context, recipient, legalName string) {}

type stubBlob struct{}

func (stubBlob) PutObject(ctx context.Context, bucket, key, contentType string, body io.Reader) (string, error) {
	return "https://bucket.example.com/" + key, nil
}

type stubSMS struct{ lastMessage string }

func (s *stubSMS) SendSMS(ctx context.Context, phone, message string) error {
	s.lastMessage = message
	return nil
}

// ==========================
// Fixture
// ==========================

func newTestServer(t *testing.T) (http.Handler, *stubSMS, *stubApplications) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logger.NewNoOpLogger()
	sms := &stubSMS{}
	applications := &stubApplications{}

	factory := func(applicantID string) *onboarding.Session {
		progress := state.NewRedisProgressStore(client, "onboarding:progress", applicantID, time.Hour)
		saver := state.NewAutosaver(progress, 10*time.Millisecond, log)
		t.Cleanup(saver.Stop)
		surface := notify.NewLogSurface(log)

		return onboarding.NewSession(onboarding.Deps{
			Progress: progress,
			Saver:    saver,
			Uploads:  upload.NewOrchestrator(stubBlob{}, "uploads", applicantID, log),
			Phones:   verify.NewPhoneVerifier(sms, log),
			Saga:     submit.NewSaga(stubIdentity{}, applications, stubProfiles{}, surface, stubMailer{}, time.Second, log),
			Surface:  surface,
			Log:      log,
			OTPTTL:   10 * time.Minute,
		})
	}

	return NewRouter(NewManager(factory), log), sms, applications
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Applicant-ID", "applicant-1")
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) sessionView {
	t.Helper()
	var view sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

// ==========================
// Handler Tests
// ==========================

func TestHealthz(t *testing.T) {
	h, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSession_RequiresApplicantHeader(t *testing.T) {
	h, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession_InitialView(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeView(t, rec)
	assert.Equal(t, 0, view.Step)
	assert.Equal(t, "country-category", view.StepName)
	assert.False(t, view.CanAdvance)
	assert.NotEmpty(t, view.VisibleFields)
}

func TestSetFieldsAndAdvance(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/session/fields", map[string]interface{}{
		"country":        "UK",
		"category":       "sales",
		"policyAccepted": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeView(t, rec).CanAdvance)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, 1, view.Step)
	assert.Equal(t, "credentials", view.StepName)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/prev", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeView(t, rec).Step)
}

func TestNext_BlockedReturnsMissingFields(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/session/next", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "missingFields")
}

func TestPrev_AtStepZeroConflicts(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/session/prev", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSecretsNeverRendered(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/session/fields", map[string]interface{}{
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2hunter2")
}

func TestOTPEndpoints(t *testing.T) {
	h, sms, _ := newTestServer(t)

	// Verify before any send conflicts.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/session/otp/verify", map[string]string{"code": "123456"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	doJSON(t, h, http.MethodPut, "/api/v1/session/fields", map[string]interface{}{"phone": "+2348012345678"})
	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/otp/send", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	fields := strings.Fields(sms.lastMessage)
	code := fields[len(fields)-1]

	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/otp/verify", map[string]string{"code": "000000"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/otp/verify", map[string]string{"code": code})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordNIN(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/session/nin", map[string]string{"nin": "12345"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/nin", map[string]string{"nin": "12345678901"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadEndpoint(t *testing.T) {
	h, _, _ := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, name := range []string{"a.pdf", "b.pdf"} {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fmt.Fprint(part, "pdf content")
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/uploads/certificationFiles", &buf)
	req.Header.Set("X-Applicant-ID", "applicant-1")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Succeeded)
	assert.Equal(t, 0, body.Failed)

	// Remove the first handle.
	rec = doJSON(t, h, http.MethodDelete, "/api/v1/session/uploads/certificationFiles/0", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpload_NonFileFieldRejected(t *testing.T) {
	h, _, _ := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", "a.pdf")
	require.NoError(t, err)
	_, err = fmt.Fprint(part, "pdf content")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/uploads/legalName", &buf)
	req.Header.Set("X-Applicant-ID", "applicant-1")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSubmit_ConsentGate(t *testing.T) {
	h, _, applications := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/session/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, applications.inserted)

	doJSON(t, h, http.MethodPut, "/api/v1/session/fields", map[string]interface{}{
		"email":               "ada@acmesolar.ng",
		"termsAccepted":       true,
		"dataConsentAccepted": true,
		"antiBriberyAccepted": true,
		"sanctionsAccepted":   true,
	})

	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, applications.inserted)

	var body struct {
		ApplicationID   string `json:"applicationId"`
		IdentityID      string `json:"identityId"`
		ProfileUpdated  bool   `json:"profileUpdated"`
		RedirectAfterMs int64  `json:"redirectAfterMs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "app-1", body.ApplicationID)
	assert.Equal(t, "identity-42", body.IdentityID)
	assert.True(t, body.ProfileUpdated)
	assert.Equal(t, int64(1000), body.RedirectAfterMs)

	// Submitted is terminal; a repeated submit conflicts and inserts nothing.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/session/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, applications.inserted)
}

func TestSessionsIsolatedPerApplicant(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/session/fields", map[string]interface{}{"legalName": "Acme"})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("X-Applicant-ID", "applicant-2")
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)

	require.Equal(t, http.StatusOK, other.Code)
	assert.NotContains(t, other.Body.String(), "Acme")
}
