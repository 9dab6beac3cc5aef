package extract

import "net/http"

// Code identifies a request failure on the wire.
type Code string

const (
	CodeInvalidAPIKey     Code = "INVALID_API_KEY"
	CodeAPIKeyDisabled    Code = "API_KEY_DISABLED"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeInvalidURL        Code = "INVALID_URL"
	CodeValidationError   Code = "VALIDATION_ERROR"
	CodeFetchTimeout      Code = "FETCH_TIMEOUT"
	CodeFetchFailed       Code = "FETCH_FAILED"
	CodeContentTooLarge   Code = "CONTENT_TOO_LARGE"
	CodeNoContent         Code = "NO_CONTENT"
	CodeExtractionFailed  Code = "EXTRACTION_FAILED"
	CodeInternalError     Code = "INTERNAL_ERROR"
)

// CodeQuotaExceeded is the code reported when the monthly quota is
// exhausted. It deliberately reuses the rate-limit code on the wire;
// splitting the two later is a one-line change here.
const CodeQuotaExceeded = CodeRateLimitExceeded

// HTTPStatus maps an error code to its fixed HTTP status.
func HTTPStatus(c Code) int {
	switch c {
	case CodeInvalidAPIKey:
		return http.StatusUnauthorized
	case CodeAPIKeyDisabled:
		return http.StatusForbidden
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeInvalidURL:
		return http.StatusBadRequest
	case CodeValidationError:
		return http.StatusUnprocessableEntity
	case CodeFetchTimeout:
		return http.StatusGatewayTimeout
	case CodeFetchFailed:
		return http.StatusBadGateway
	case CodeContentTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeNoContent, CodeExtractionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a pipeline failure carried as a value. It implements error
// so the extractor can return it through ordinary error plumbing.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError builds an *Error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}
