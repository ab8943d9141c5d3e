package domain

import (
	"fmt"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput          = "INVALID_INPUT"
	ErrDatabaseError         = "DATABASE_ERROR"
	ErrExternalAPI           = "EXTERNAL_API_ERROR"
	ErrRateLimit             = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer        = "INTERNAL_SERVER_ERROR"
	ErrValidation            = "VALIDATION_ERROR"
	ErrNotFoundCode          = "NOT_FOUND"
	ErrPathResolution        = "PATH_RESOLUTION_ERROR"
	ErrUnresolvedDrug        = "UNRESOLVED_DRUG"
	ErrUnhandledEvidenceType = "UNHANDLED_EVIDENCE_TYPE"
)

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// PathResolutionError reports a path segment that names neither an existing
// key nor a valid index of the node it was applied to.
type PathResolutionError struct {
	Path    string
	Segment string
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve segment %q of path %q", e.Segment, e.Path)
}

// Code returns the error code reported to clients.
func (e *PathResolutionError) Code() string { return ErrPathResolution }

// UnresolvedDrugError reports a treatment drug token missing from the drug lookup.
type UnresolvedDrugError struct {
	DrugName string
}

func (e *UnresolvedDrugError) Error() string {
	return fmt.Sprintf("drug %q not found in drug lookup", e.DrugName)
}

// Code returns the error code reported to clients.
func (e *UnresolvedDrugError) Code() string { return ErrUnresolvedDrug }

// UnhandledEvidenceTypeError is returned when no resolver is registered for a type.
type UnhandledEvidenceTypeError struct {
	Type EvidenceType
}

func (e *UnhandledEvidenceTypeError) Error() string {
	return fmt.Sprintf("no resolver registered for evidence type %q", string(e.Type))
}

// Code returns the error code reported to clients.
func (e *UnhandledEvidenceTypeError) Code() string { return ErrUnhandledEvidenceType }

// SubmissionError wraps a failure of the backend ingestion API.
type SubmissionError struct {
	DataUUID   string
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("submission of %s failed with status %d: %v", e.DataUUID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submission of %s failed: %v", e.DataUUID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Code returns the error code reported to clients.
func (e *SubmissionError) Code() string { return ErrExternalAPI }

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Code returns the error code reported to clients.
func (e *ValidationError) Code() string { return ErrValidation }

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
