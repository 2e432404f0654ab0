package services

import (
	"errors"
	"fmt"

	apperrors "github.com/lumenlearn/assessment-engine/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Question bank errors
	ErrBankNotFound     = errors.New("question bank not found for module")
	ErrQuestionNotFound = errors.New("question not found")

	// Quiz assembly errors
	ErrQuizNotFound          = errors.New("quiz not found")
	ErrInsufficientQuestions = errors.New("not enough eligible questions to assemble quiz")

	// Submission errors
	ErrInvalidQuestionID = errors.New("submitted answer references a question not on the quiz")
	ErrResponseNotFound  = errors.New("quiz response not found")

	// Progress errors
	ErrProgressNotFound = errors.New("course progress not found - learner is not enrolled")
	ErrModuleNotFound   = errors.New("module not found")
	ErrCourseNotFound   = errors.New("course not found")
	ErrAccountNotFound  = errors.New("account not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
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
		errors.Is(err, ErrBankNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrResponseNotFound) ||
		errors.Is(err, ErrProgressNotFound) ||
		errors.Is(err, ErrModuleNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrAccountNotFound)
}

// IsBadRequest checks if error represents malformed or unsatisfiable input.
// Insufficient questions is a specialization of bad request.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrInvalidQuestionID) ||
		errors.Is(err, ErrInsufficientQuestions)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsPermission checks if error represents a permission failure
func IsPermission(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}
