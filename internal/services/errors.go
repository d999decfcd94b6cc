package services

import (
	"errors"
	"fmt"

	apperrors "github.com/eduport/examportal-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Exam errors
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotActive    = errors.New("exam is not active")
	ErrExamWindowClosed = errors.New("exam admission window is closed")

	// Admission errors
	ErrNotAssigned = errors.New("student is not assigned to this exam")

	// Attempt errors
	ErrInvalidAttempt   = errors.New("invalid attempt")
	ErrAttemptNotActive = errors.New("attempt is not active")
	ErrSubmissionFailed = errors.New("submission failed, retry with the same answers")

	// Retest errors
	ErrRetestNotCompleted     = errors.New("retest can only be requested for a completed attempt")
	ErrRetestAlreadyRequested = errors.New("retest already requested for this attempt")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

var NewValidationError = apperrors.NewValidationError

// AttemptLimitError reports an exhausted attempt cap together with the
// effective limit so callers can render it.
type AttemptLimitError struct {
	ExamID string `json:"exam_id"`
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
	Used   int    `json:"used"`
}

func (e *AttemptLimitError) Error() string {
	return fmt.Sprintf("maximum attempts (%d) reached for exam %s", e.Limit, e.ExamID)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewAttemptLimitError(examID, userID string, limit, used int) *AttemptLimitError {
	return &AttemptLimitError{
		ExamID: examID,
		UserID: userID,
		Limit:  limit,
		Used:   used,
	}
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrInvalidAttempt) ||
		errors.Is(err, ErrUserNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsAdmission checks if error was raised by the admission gate
func IsAdmission(err error) bool {
	if errors.Is(err, ErrNotAssigned) ||
		errors.Is(err, ErrExamNotActive) ||
		errors.Is(err, ErrExamWindowClosed) {
		return true
	}
	var le *AttemptLimitError
	return errors.As(err, &le)
}

// IsRetryable checks if the caller may safely retry the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSubmissionFailed)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var ves apperrors.ValidationErrors
	return errors.As(err, &ves)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	if errors.Is(err, ErrRetestAlreadyRequested) {
		return true
	}
	var le *AttemptLimitError
	return errors.As(err, &le)
}
