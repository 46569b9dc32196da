// Package response renders the JSON envelopes returned by the HTTP API.
package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/repository"
)

// APIResponse wraps every successful answer.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse wraps every failure. Code is one of the internal/errors
// codes so clients can branch without parsing Error.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Meta    Meta `json:"meta"`
}

type Meta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// Success writes data in a 200 envelope.
func Success(c echo.Context, data any) error {
	return SuccessWithMessage(c, data, "")
}

func SuccessWithMessage(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Message: message})
}

// Paginated writes one page of a list along with the window that produced it.
func Paginated(c echo.Context, data any, total int64, limit, offset int) error {
	return c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Meta:    Meta{Total: total, Limit: limit, Offset: offset},
	})
}

// Error writes err with the status its code maps to. Repository
// not-found errors become 404 whatever their wrapping.
func Error(c echo.Context, err error) error {
	code := apperrors.GetErrorCode(err)
	if errors.Is(err, repository.ErrNotFound) {
		code = apperrors.CodeNotFound
	}
	return fail(c, code, err.Error())
}

func BadRequest(c echo.Context, message string) error {
	return fail(c, apperrors.CodeInvalidInput, message)
}

func Unauthorized(c echo.Context, message string) error {
	return fail(c, apperrors.CodeUnauthorized, message)
}

func NotFound(c echo.Context, message string) error {
	return fail(c, apperrors.CodeNotFound, message)
}

// InternalError hides the cause; callers log it before answering.
func InternalError(c echo.Context, message string) error {
	return fail(c, apperrors.CodeInternalError, message)
}

func fail(c echo.Context, code, message string) error {
	return c.JSON(HTTPStatus(code), ErrorResponse{Error: message, Code: code})
}

// HTTPStatus maps an internal/errors code to its HTTP status.
func HTTPStatus(code string) int {
	switch code {
	case apperrors.CodeNotFound, apperrors.CodeTenantNotFound:
		return http.StatusNotFound
	case apperrors.CodeDuplicateEntry:
		return http.StatusConflict
	case apperrors.CodeInvalidInput, apperrors.CodeNormalizationFailed:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeQuotaExhausted:
		return http.StatusTooManyRequests
	case apperrors.CodeExtractionUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.CodePipelineTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
