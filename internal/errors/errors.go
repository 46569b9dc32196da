package errors

import (
	"errors"
	"fmt"
)

// Generic error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Ingestion pipeline error types. Each one maps to a routing decision rather
// than a failure surfaced to the sender.
var (
	// ErrNormalization indicates the payload had no usable sender, subject or body
	ErrNormalization = errors.New("normalization failed")

	// ErrTenantNotFound indicates the recipient address maps to no active tenant
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrExtractionUnavailable indicates the extraction service failed, timed out or was skipped
	ErrExtractionUnavailable = errors.New("extraction unavailable")

	// ErrQuotaExhausted indicates the tenant used up its extraction allowance
	ErrQuotaExhausted = errors.New("extraction quota exhausted")

	// ErrInsufficientConfidence indicates the quality gate rejected the extraction
	ErrInsufficientConfidence = errors.New("insufficient confidence")

	// ErrMaterialization indicates the booking store rejected the create
	ErrMaterialization = errors.New("booking materialization failed")

	// ErrReviewWrite indicates the review record itself could not be stored
	ErrReviewWrite = errors.New("review write failed")

	// ErrPipelineTimeout indicates the run exceeded its overall deadline
	ErrPipelineTimeout = errors.New("pipeline timed out")

	// ErrPipelinePanic indicates a stage panicked and was recovered
	ErrPipelinePanic = errors.New("pipeline panicked")
)

// Error codes for API responses and review records
const (
	CodeNotFound               = "NOT_FOUND"
	CodeDuplicateEntry         = "DUPLICATE_ENTRY"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeInternalError          = "INTERNAL_ERROR"
	CodeNormalizationFailed    = "NORMALIZATION_FAILED"
	CodeTenantNotFound         = "TENANT_NOT_FOUND"
	CodeExtractionUnavailable  = "EXTRACTION_UNAVAILABLE"
	CodeQuotaExhausted         = "QUOTA_EXHAUSTED"
	CodeInsufficientConfidence = "INSUFFICIENT_CONFIDENCE"
	CodeMaterializationFailed  = "MATERIALIZATION_FAILED"
	CodeReviewWriteFailed      = "REVIEW_WRITE_FAILED"
	CodePipelineTimeout        = "PIPELINE_TIMEOUT"
	CodePipelinePanic          = "PIPELINE_PANIC"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Newf creates an AppError for a sentinel with a formatted message and the
// sentinel's own code.
func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
		Code:    GetErrorCode(sentinel),
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// GetErrorCode returns the appropriate error code for an error.
// An AppError's own code wins over sentinel matching.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrNormalization):
		return CodeNormalizationFailed
	case errors.Is(err, ErrTenantNotFound):
		return CodeTenantNotFound
	case errors.Is(err, ErrQuotaExhausted):
		return CodeQuotaExhausted
	case errors.Is(err, ErrExtractionUnavailable):
		return CodeExtractionUnavailable
	case errors.Is(err, ErrInsufficientConfidence):
		return CodeInsufficientConfidence
	case errors.Is(err, ErrMaterialization):
		return CodeMaterializationFailed
	case errors.Is(err, ErrReviewWrite):
		return CodeReviewWriteFailed
	case errors.Is(err, ErrPipelineTimeout):
		return CodePipelineTimeout
	case errors.Is(err, ErrPipelinePanic):
		return CodePipelinePanic
	default:
		return CodeInternalError
	}
}
