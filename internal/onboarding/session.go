// Package onboarding hosts the wizard session engine: one logical session
// per applicant, event-driven, with the step registry, validation rules,
// autosaved state, uploads and the submission saga behind a single facade.
package onboarding

import (
	"context"
	"fmt"
	"sync"
	"time"

	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/common/logger"
	"partner-onboarding/internal/common/metrics"
	"partner-onboarding/internal/models"
	"partner-onboarding/internal/notify"
	"partner-onboarding/internal/onboarding/rules"
	"partner-onboarding/internal/onboarding/schema"
	"partner-onboarding/internal/onboarding/state"
	"partner-onboarding/internal/onboarding/submit"
	"partner-onboarding/internal/onboarding/upload"
	"partner-onboarding/internal/onboarding/verify"
)

// Deps are the collaborators a session needs.
type Deps struct {
	Progress state.ProgressStore
	Saver    *state.Autosaver
	Uploads  *upload.Orchestrator
	Phones   *verify.PhoneVerifier
	Saga     *submit.Saga
	Surface  notify.Surface
	Log      logger.Logger
	// OTPTTL bounds how long a delivered verification code stays valid.
	// Non-positive means codes never expire.
	OTPTTL time.Duration
}

// Session is the single mutable aggregate of one applicant's wizard run.
// All mutation flows through the reducer; every applied change schedules a
// debounced snapshot.
type Session struct {
	mu   sync.Mutex
	form *models.FormState

	progress state.ProgressStore
	saver    *state.Autosaver
	uploads  *upload.Orchestrator
	phones   *verify.PhoneVerifier
	saga     *submit.Saga
	surface  notify.Surface
	log      logger.Logger
	otpTTL   time.Duration
}

func NewSession(deps Deps) *Session {
	return &Session{
		form:     models.NewFormState(),
		progress: deps.Progress,
		saver:    deps.Saver,
		uploads:  deps.Uploads,
		phones:   deps.Phones,
		saga:     deps.Saga,
		surface:  deps.Surface,
		log:      deps.Log.WithFields(map[string]interface{}{"component": "session"}),
		otpTTL:   deps.OTPTTL,
	}
}

// Restore loads saved progress if any. Corrupt envelopes fall back to an
// empty draft at step 0.
func (s *Session) Restore(ctx context.Context) {
	progress, err := s.progress.Load(ctx)
	if err != nil {
		metrics.SessionsRestored.WithLabelValues("corrupt").Inc()
		s.log.Warn("saved progress unreadable, starting fresh", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if progress == nil {
		metrics.SessionsRestored.WithLabelValues("empty").Inc()
		return
	}

	s.mu.Lock()
	s.form = progress.FormData
	s.form.CurrentStep = progress.Step
	s.mu.Unlock()

	metrics.SessionsRestored.WithLabelValues("restored").Inc()
	s.log.Info("session restored", map[string]interface{}{
		"step":    progress.Step,
		"savedAt": progress.SavedAt,
	})
}

// Form returns a copy of the aggregate for rendering.
func (s *Session) Form() models.FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.form
}

// CurrentStep returns the step pointer.
func (s *Session) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.CurrentStep
}

// VisibleFields resolves the current step's visible field set.
func (s *Session) VisibleFields() schema.FieldSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.VisibleFields(s.form.CurrentStep, s.form)
}

// RequiredFields resolves the current step's required field set.
func (s *Session) RequiredFields() schema.FieldSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.RequiredFields(s.form.CurrentStep, s.form)
}

// CanAdvance evaluates the current step's advancement rule; rendered on
// every edit to enable or disable the next control.
func (s *Session) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rules.CanAdvance(s.form.CurrentStep, s.form)
}

// MissingFields lists what still blocks the current step.
func (s *Session) MissingFields() []schema.FieldKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rules.MissingFields(s.form.CurrentStep, s.form)
}

// SetFields replaces the given field values and schedules a snapshot.
func (s *Session) SetFields(values map[schema.FieldKey]interface{}) {
	s.mu.Lock()
	s.form = state.Apply(s.form, state.SetFields{Values: values})
	s.scheduleSnapshotLocked()
	s.mu.Unlock()
}

// Next advances the step pointer when the validation gate holds. The gate
// is re-checked here authoritatively regardless of what the UI showed.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.form.CurrentStep >= schema.StepCount-1 {
		return false
	}
	if !rules.CanAdvance(s.form.CurrentStep, s.form) {
		return false
	}

	s.form = state.Apply(s.form, state.StepChanged{Step: s.form.CurrentStep + 1})
	s.scheduleSnapshotLocked()
	metrics.StepTransitions.WithLabelValues("forward").Inc()
	return true
}

// Prev moves back one step. Back navigation has no validation gate and
// never clears data entered on later steps, but the terminal submitted
// state cannot be left.
func (s *Session) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.form.CurrentStep == 0 || s.form.ApplicationStatus == models.StatusSubmitted {
		return false
	}

	s.form = state.Apply(s.form, state.StepChanged{Step: s.form.CurrentStep - 1})
	s.scheduleSnapshotLocked()
	metrics.StepTransitions.WithLabelValues("backward").Inc()
	return true
}

// Upload stores a document batch for fieldKey and appends the handles that
// succeeded. Navigating away does not cancel uploads already in flight.
func (s *Session) Upload(ctx context.Context, fieldKey schema.FieldKey, files []upload.File) (upload.BatchResult, error) {
	if !state.FileField(fieldKey) {
		return upload.BatchResult{}, fmt.Errorf("field %q does not accept file uploads", fieldKey)
	}

	result := s.uploads.UploadBatch(ctx, fieldKey, files)

	if len(result.Handles) > 0 {
		s.mu.Lock()
		s.form = state.Apply(s.form, state.AppendFiles{Key: fieldKey, Files: result.Handles})
		s.scheduleSnapshotLocked()
		s.mu.Unlock()
	}

	if result.Failed() > 0 {
		s.surface.Notify(notify.Error,
			fmt.Sprintf("%d of %d files uploaded, %d failed", result.Succeeded(), len(files), result.Failed()))
	} else if result.Succeeded() > 0 {
		s.surface.Notify(notify.Success, fmt.Sprintf("%d files uploaded", result.Succeeded()))
	}

	return result, nil
}

// RemoveUpload drops one handle from a file field. The remote object stays.
func (s *Session) RemoveUpload(fieldKey schema.FieldKey, index int) {
	s.mu.Lock()
	s.form = state.Apply(s.form, state.RemoveFile{Key: fieldKey, Index: index})
	s.scheduleSnapshotLocked()
	s.mu.Unlock()
}

// SendOTP delivers a verification code to the current phone number.
func (s *Session) SendOTP(ctx context.Context) error {
	s.mu.Lock()
	phone := s.form.Phone
	s.mu.Unlock()

	if !rules.ValidPhone(phone) {
		return stderrors.NewValidationFailedError(schema.StepCredentials, []string{string(schema.FieldPhone)})
	}

	code, err := s.phones.SendCode(ctx, phone)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.form = state.Apply(s.form, state.OTPIssued{Code: code, At: time.Now().UTC()})
	s.mu.Unlock()
	return nil
}

// VerifyOTP compares the entered code with the delivered one.
func (s *Session) VerifyOTP(entered string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := verify.CheckCode(s.form.OTPCode, entered, s.form.OTPIssuedAt, s.otpTTL); err != nil {
		return err
	}
	s.form = state.Apply(s.form, state.PhoneVerified{OK: true})
	s.scheduleSnapshotLocked()
	return nil
}

// RecordNIN format-checks and records the national ID. Verification is
// advisory; the recorded flag feeds later KYC review.
func (s *Session) RecordNIN(nin string) error {
	if err := verify.CheckNIN(nin); err != nil {
		return err
	}

	s.mu.Lock()
	s.form = state.Apply(s.form, state.SetFields{Values: map[schema.FieldKey]interface{}{schema.FieldNIN: nin}})
	s.form = state.Apply(s.form, state.NINRecorded{OK: true})
	s.scheduleSnapshotLocked()
	s.mu.Unlock()
	return nil
}

// Submit flushes pending autosaves and runs the submission saga. On success
// the saved progress is cleared and the aggregate reaches its terminal
// status; on fatal failure the session stays in editing with the step
// pointer unchanged so the user can correct and retry.
func (s *Session) Submit(ctx context.Context) (*submit.Result, error) {
	s.mu.Lock()
	if s.form.ApplicationStatus == models.StatusSubmitted {
		s.mu.Unlock()
		return nil, stderrors.NewAlreadySubmittedError()
	}
	form := s.form
	s.mu.Unlock()

	s.saver.Flush()

	result, err := s.saga.Submit(ctx, form)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.form = state.Apply(s.form, state.Submitted{})
	s.mu.Unlock()

	s.saver.Stop()
	if err := s.progress.Clear(ctx); err != nil {
		s.log.Warn("clearing saved progress failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return result, nil
}

// scheduleSnapshotLocked arms the debounced write for the current state.
// Callers hold s.mu.
func (s *Session) scheduleSnapshotLocked() {
	s.saver.Schedule(state.Snapshot(s.form))
}
