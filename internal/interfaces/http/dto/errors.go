package dto

import (
	"net/http"

	"github.com/schoolerp/feeledger/internal/domain/finance"
	"github.com/schoolerp/feeledger/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
)

// Codes returned by optional adapters that are switched off
const (
	ErrCodePrintingDisabled  = "PRINTING_DISABLED"
	ErrCodeExportUnavailable = "EXPORT_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Input and business validation -> 400
	shared.CodeInvalidInput:  http.StatusBadRequest,
	shared.CodeValidation:    http.StatusBadRequest,
	shared.CodeInvalidState:  http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	finance.CodeMissingField: http.StatusBadRequest,

	// Auth
	shared.CodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,

	// Resources
	shared.CodeNotFound:        http.StatusNotFound,
	ErrCodeRouteNotFound:       http.StatusNotFound,
	shared.CodeAlreadyExists:   http.StatusConflict,
	finance.CodeStructureInUse: http.StatusConflict,

	// Concurrency
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeDuplicateRequest:    http.StatusConflict,
	shared.CodeLockTimeout:         http.StatusServiceUnavailable,

	ErrCodeRequestTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodePrintingDisabled:  http.StatusNotImplemented,
	ErrCodeExportUnavailable: http.StatusNotImplemented,
	ErrCodeInternal:          http.StatusInternalServerError,
}

func init() {
	for _, code := range finance.ValidationCodes {
		ErrorCodeHTTPStatus[code] = http.StatusBadRequest
	}
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes, including LEDGER_INVARIANT_VIOLATION, are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RetryAfterSeconds is sent with 503 responses for lock timeouts
const RetryAfterSeconds = "1"
