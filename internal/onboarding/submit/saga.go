// Package submit runs the terminal three-stage commit: identity,
// application record, profile mutation. The three writes share no
// transaction; each stage's failure policy is encoded as data so the
// sequence can be audited and tested per stage.
package submit

import (
	"context"
	"sync"
	"time"

	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/common/identity"
	"partner-onboarding/internal/common/logger"
	"partner-onboarding/internal/common/metrics"
	"partner-onboarding/internal/models"
	"partner-onboarding/internal/notify"
	"partner-onboarding/internal/onboarding/rules"
	"partner-onboarding/internal/onboarding/schema"
)

// Phase is the submission state machine's position.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseSubmitted  Phase = "submitted"
)

// FailurePolicy decides what a stage failure does to the run.
type FailurePolicy int

const (
	// Fatal aborts the run and returns the saga to editing.
	Fatal FailurePolicy = iota
	// LogAndContinue records the failure and lets the run succeed.
	LogAndContinue
)

// Stage is one named step of the commit sequence.
type Stage struct {
	Name   string
	Policy FailurePolicy
	Run    func(ctx context.Context, run *runState) error
}

// runState carries values across stages within one submission attempt.
type runState struct {
	form        *models.FormState
	identityID  string
	application *models.Application
}

// ApplicationInserter stores the application record.
type ApplicationInserter interface {
	Insert(ctx context.Context, app *models.Application) (*models.Application, error)
}

// ProfilePatcher mutates the applicant profile.
type ProfilePatcher interface {
	ApplyPatch(ctx context.Context, patch models.ProfilePatch) error
}

// ConfirmationMailer sends the post-submission courtesy email.
type ConfirmationMailer interface {
	SendSubmissionConfirmation(ctx context.Context, recipient, legalName string)
}

// Result reports a successful submission.
type Result struct {
	Application *models.Application
	IdentityID  string
	// ProfileUpdated is false when the non-fatal profile stage failed.
	ProfileUpdated bool
	// RedirectAfter tells the caller how long to show the success message
	// before navigating. It is presentation timing, not a processing wait.
	RedirectAfter time.Duration
}

// Saga executes the commit sequence with a re-entrancy guard: a submit while
// one is in flight is rejected, never queued.
type Saga struct {
	identity      identity.Service
	applications  ApplicationInserter
	profiles      ProfilePatcher
	surface       notify.Surface
	mailer        ConfirmationMailer
	log           logger.Logger
	redirectAfter time.Duration

	mu    sync.Mutex
	phase Phase
	// identityID survives across attempts so a retry after a fatal
	// application-stage failure reuses the account already provisioned
	// instead of minting a duplicate.
	identityID string
}

func NewSaga(
	idsvc identity.Service,
	applications ApplicationInserter,
	profiles ProfilePatcher,
	surface notify.Surface,
	mailer ConfirmationMailer,
	redirectAfter time.Duration,
	log logger.Logger,
) *Saga {
	return &Saga{
		identity:      idsvc,
		applications:  applications,
		profiles:      profiles,
		surface:       surface,
		mailer:        mailer,
		log:           log.WithFields(map[string]interface{}{"component": "submission"}),
		redirectAfter: redirectAfter,
		phase:         PhaseEditing,
	}
}

// Phase returns the current state machine position.
func (s *Saga) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Saga) rememberIdentity(id string) {
	s.mu.Lock()
	s.identityID = id
	s.mu.Unlock()
}

// stages returns the commit sequence with each stage's failure policy.
func (s *Saga) stages() []Stage {
	return []Stage{
		{
			Name:   "identity",
			Policy: Fatal,
			Run: func(ctx context.Context, run *runState) error {
				s.mu.Lock()
				prior := s.identityID
				s.mu.Unlock()
				if prior != "" {
					run.identityID = prior
					return nil
				}

				existing, err := s.identity.CurrentIdentity(ctx)
				if err == nil && existing != "" {
					run.identityID = existing
					s.rememberIdentity(existing)
					return nil
				}

				id, err := s.identity.CreateAccount(ctx, run.form.Email, run.form.Password, identity.Attributes{
					DisplayName: DisplayName(run.form),
					Role:        "partner",
					Phone:       run.form.Phone,
					Country:     run.form.Country,
				})
				if err != nil {
					return err
				}
				run.identityID = id
				s.rememberIdentity(id)
				return nil
			},
		},
		{
			Name:   "application",
			Policy: Fatal,
			Run: func(ctx context.Context, run *runState) error {
				app := Project(run.form, run.identityID)
				inserted, err := s.applications.Insert(ctx, app)
				if err != nil {
					// The identity from the previous stage is deliberately
					// left intact; the inconsistency window is accepted and
					// observable through this log line.
					s.log.Warn("application insert failed after identity creation", map[string]interface{}{
						"identityId": run.identityID,
						"error":      err.Error(),
					})
					return err
				}
				run.application = inserted
				return nil
			},
		},
		{
			Name:   "profile",
			Policy: LogAndContinue,
			Run: func(ctx context.Context, run *runState) error {
				return s.profiles.ApplyPatch(ctx, models.ProfilePatch{
					IdentityID:    run.identityID,
					UserRole:      "partner",
					Category:      run.form.Category,
					PhoneVerified: run.form.PhoneVerified,
					NINVerified:   run.form.NINVerified,
				})
			},
		},
	}
}

// Submit drains the form aggregate into the three external writes. It only
// enters Submitting when the final consent gate holds and no run is in
// flight; a fatal stage failure leaves the form in editing with the step
// pointer untouched.
func (s *Saga) Submit(ctx context.Context, form *models.FormState) (*Result, error) {
	if !rules.CanAdvance(schema.StepConsents, form) {
		err := stderrors.NewConsentGateFailedError()
		s.surface.Notify(notify.Error, err.Message)
		return nil, err
	}

	s.mu.Lock()
	switch s.phase {
	case PhaseSubmitting:
		s.mu.Unlock()
		return nil, stderrors.NewSubmissionInFlightError()
	case PhaseSubmitted:
		// Submitted is terminal; a repeat submit must never insert a
		// second write-once application record.
		s.mu.Unlock()
		return nil, stderrors.NewAlreadySubmittedError()
	}
	s.phase = PhaseSubmitting
	s.mu.Unlock()

	run := &runState{form: form}
	profileUpdated := true

	for _, stage := range s.stages() {
		start := time.Now()
		err := stage.Run(ctx, run)
		metrics.SubmissionStageDuration.WithLabelValues(stage.Name).Observe(time.Since(start).Seconds())

		if err == nil {
			continue
		}

		if stage.Policy == LogAndContinue {
			profileUpdated = false
			s.log.Warn("non-fatal submission stage failed", map[string]interface{}{
				"stage": stage.Name,
				"error": err.Error(),
			})
			continue
		}

		s.mu.Lock()
		s.phase = PhaseEditing
		s.mu.Unlock()

		metrics.Submissions.WithLabelValues("failed_" + stage.Name).Inc()
		s.surface.Notify(notify.Error, "Submission failed: "+err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.phase = PhaseSubmitted
	s.mu.Unlock()

	metrics.Submissions.WithLabelValues("succeeded").Inc()
	s.surface.Notify(notify.Success, "Your partner application has been submitted")
	if s.mailer != nil {
		s.mailer.SendSubmissionConfirmation(ctx, form.Email, form.LegalName)
	}

	return &Result{
		Application:    run.application,
		IdentityID:     run.identityID,
		ProfileUpdated: profileUpdated,
		RedirectAfter:  s.redirectAfter,
	}, nil
}
