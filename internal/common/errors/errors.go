// Package errors provides standardized error handling for the onboarding workflow.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Step validation failed locally; never reaches a collaborator.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Phone OTP or NIN check mismatch; recoverable in place.
	ErrCodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"
	ErrCodeOTPMismatch        ErrorCode = "OTP_MISMATCH"
	ErrCodeOTPNotRequested    ErrorCode = "OTP_NOT_REQUESTED"
	ErrCodeOTPExpired         ErrorCode = "OTP_EXPIRED"
	ErrCodeInvalidNINFormat   ErrorCode = "INVALID_NIN_FORMAT"

	// Per-file upload failure; never invalidates sibling uploads.
	ErrCodeUploadFailed ErrorCode = "UPLOAD_FAILED"

	// Submission saga stages.
	ErrCodeIdentityCreateFailed   ErrorCode = "IDENTITY_CREATE_FAILED"
	ErrCodeApplicationWriteFailed ErrorCode = "APPLICATION_WRITE_FAILED"
	ErrCodeProfileMutationFailed  ErrorCode = "PROFILE_MUTATION_FAILED"
	ErrCodeSubmissionInFlight     ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeAlreadySubmitted       ErrorCode = "ALREADY_SUBMITTED"
	ErrCodeConsentGateFailed      ErrorCode = "CONSENT_GATE_FAILED"

	// Saved-progress persistence.
	ErrCodeProgressCorrupt     ErrorCode = "PROGRESS_CORRUPT"
	ErrCodeProgressWriteFailed ErrorCode = "PROGRESS_WRITE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HasCode reports whether err is (or wraps) a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code == code
	}
	return false
}

// CodeOf extracts the error code from err, or empty when err is not standardized.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return ""
}

// NewValidationFailedError reports a step that cannot advance. Retryable is
// true in the sense that all retries in this subsystem are user-initiated.
func NewValidationFailedError(step int, missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Step validation failed",
		Details:   fmt.Sprintf("step: %d, missing or invalid: %v", step, missing),
		Retryable: true,
		Metadata:  map[string]interface{}{"step": step, "fields": missing},
		Timestamp: time.Now().UTC(),
	}
}

// NewOTPMismatchError reports a code that does not match the one delivered.
func NewOTPMismatchError() *StandardError {
	return &StandardError{
		Code:      ErrCodeOTPMismatch,
		Message:   "Verification code does not match",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOTPNotRequestedError reports a verify attempt with no code in flight.
func NewOTPNotRequestedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeOTPNotRequested,
		Message:   "No verification code has been sent for this phone number",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOTPExpiredError reports a verify attempt after the delivered code's
// validity window closed. The user requests a fresh code.
func NewOTPExpiredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeOTPExpired,
		Message:   "Verification code has expired, request a new one",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidNINFormatError reports a national ID that is not 11 numeric digits.
func NewInvalidNINFormatError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidNINFormat,
		Message:   "National identification number must be exactly 11 digits",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadFailedError reports a single file that could not be stored.
func NewUploadFailedError(fileName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadFailed,
		Message:   "File upload failed",
		Details:   fmt.Sprintf("file: %s, error: %s", fileName, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"file": fileName},
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityCreateFailedError reports a fatal identity-stage failure.
func NewIdentityCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityCreateFailed,
		Message:   "Account creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationWriteFailedError reports a fatal application-stage failure.
func NewApplicationWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationWriteFailed,
		Message:   "Application record could not be stored",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileMutationFailedError reports the non-fatal profile-stage failure.
func NewProfileMutationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileMutationFailed,
		Message:   "Profile update failed after application submission",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionInFlightError reports a second submit while one is running.
func NewSubmissionInFlightError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInFlight,
		Message:   "A submission is already in progress",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadySubmittedError reports a submit attempt after the application
// reached its terminal state.
func NewAlreadySubmittedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadySubmitted,
		Message:   "This application has already been submitted",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConsentGateFailedError reports a submit attempt before the legal
// consents on the final gated step are all accepted.
func NewConsentGateFailedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeConsentGateFailed,
		Message:   "All legal consents must be accepted before submission",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProgressCorruptError reports an unreadable saved-progress envelope.
// Callers fall back to an empty session at step 0.
func NewProgressCorruptError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProgressCorrupt,
		Message:   "Saved progress envelope is corrupt",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProgressWriteFailedError reports a failed autosave write.
func NewProgressWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProgressWriteFailed,
		Message:   "Saving progress failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
