package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/common/identity"
	"partner-onboarding/internal/common/logger"
	"partner-onboarding/internal/onboarding"
	"partner-onboarding/internal/onboarding/schema"
	"partner-onboarding/internal/onboarding/upload"
)

// maxUploadBytes bounds one multipart request body.
const maxUploadBytes = 32 << 20

type contextKey string

const applicantKey contextKey = "applicantID"

// Handler is the thin HTTP layer over the session engine.
type Handler struct {
	manager *Manager
	log     logger.Logger
}

// requireApplicant resolves the applicant from the X-Applicant-ID header.
// The upstream gateway authenticates and sets it; an absent header is a
// client error here. An Authorization bearer, when present, is forwarded as
// the applicant's identity session so a signed-in applicant's submission
// reuses their existing account.
func (h *Handler) requireApplicant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		applicantID := r.Header.Get("X-Applicant-ID")
		if applicantID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing X-Applicant-ID header"})
			return
		}
		ctx := context.WithValue(r.Context(), applicantKey, applicantID)
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			ctx = identity.WithSessionToken(ctx, strings.TrimPrefix(auth, "Bearer "))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) session(r *http.Request) *onboarding.Session {
	applicantID, _ := r.Context().Value(applicantKey).(string)
	return h.manager.Get(r.Context(), applicantID)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionView is the render model for the current step.
type sessionView struct {
	Step           int                    `json:"step"`
	StepName       string                 `json:"stepName"`
	CanAdvance     bool                   `json:"canAdvance"`
	VisibleFields  []schema.FieldKey      `json:"visibleFields"`
	RequiredFields []schema.FieldKey      `json:"requiredFields"`
	MissingFields  []schema.FieldKey      `json:"missingFields"`
	Form           map[string]interface{} `json:"form"`
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) view(s *onboarding.Session) sessionView {
	form := s.Form()

	// The form renders through its JSON tags; secrets carry json:"-" and
	// never leave the process.
	raw, _ := json.Marshal(form)
	var rendered map[string]interface{}
	_ = json.Unmarshal(raw, &rendered)

	step := s.CurrentStep()
	return sessionView{
		Step:           step,
		StepName:       schema.Step(step).Name,
		CanAdvance:     s.CanAdvance(),
		VisibleFields:  s.VisibleFields().Sorted(),
		RequiredFields: s.RequiredFields().Sorted(),
		MissingFields:  s.MissingFields(),
		Form:           rendered,
	}
}

func (h *Handler) handleSetFields(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	values := make(map[schema.FieldKey]interface{}, len(body))
	for k, v := range body {
		values[schema.FieldKey(k)] = v
	}

	s := h.session(r)
	s.SetFields(values)
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if !s.Next() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":         "step cannot advance",
			"missingFields": s.MissingFields(),
		})
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if !s.Prev() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "cannot navigate back"})
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	fieldKey := schema.FieldKey(chi.URLParam(r, "field"))

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	var files []upload.File
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable file " + header.Filename})
			return
		}
		defer f.Close()
		files = append(files, upload.File{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Content:     f,
		})
	}
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no files in request"})
		return
	}

	s := h.session(r)
	result, err := s.Upload(r.Context(), fieldKey, files)
	if err != nil {
		writeError(w, err)
		return
	}

	failures := make([]map[string]string, 0, result.Failed())
	for _, f := range result.Failures {
		failures = append(failures, map[string]string{"name": f.Name, "error": f.Err.Error()})
	}
	// Partial success is still a 200; per-file outcomes are in the body.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"succeeded": result.Succeeded(),
		"failed":    result.Failed(),
		"handles":   result.Handles,
		"failures":  failures,
	})
}

func (h *Handler) handleRemoveUpload(w http.ResponseWriter, r *http.Request) {
	fieldKey := schema.FieldKey(chi.URLParam(r, "field"))
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file index"})
		return
	}

	s := h.session(r)
	s.RemoveUpload(fieldKey, index)
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).SendOTP(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	if err := h.session(r).VerifyOTP(body.Code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *Handler) handleRecordNIN(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NIN string `json:"nin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	if err := h.session(r).RecordNIN(body.NIN); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := h.session(r).Submit(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applicationId":   result.Application.ID,
		"partnerId":       result.Application.PartnerID,
		"identityId":      result.IdentityID,
		"profileUpdated":  result.ProfileUpdated,
		"redirectAfterMs": result.RedirectAfter.Milliseconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates domain error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := ""

	if c := stderrors.CodeOf(err); c != "" {
		code = string(c)
		switch c {
		case stderrors.ErrCodeValidationFailed,
			stderrors.ErrCodeInvalidNINFormat,
			stderrors.ErrCodeConsentGateFailed,
			stderrors.ErrCodeOTPMismatch:
			status = http.StatusUnprocessableEntity
		case stderrors.ErrCodeOTPNotRequested,
			stderrors.ErrCodeOTPExpired,
			stderrors.ErrCodeSubmissionInFlight,
			stderrors.ErrCodeAlreadySubmitted:
			status = http.StatusConflict
		case stderrors.ErrCodeUploadFailed,
			stderrors.ErrCodeIdentityCreateFailed,
			stderrors.ErrCodeApplicationWriteFailed:
			status = http.StatusBadGateway
		}
	}

	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}
