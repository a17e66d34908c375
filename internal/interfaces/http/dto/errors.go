package dto

import "net/http"

// Error codes returned in ErrorInfo.Code. Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation    = "ERR_VALIDATION"
	ErrCodeBadRequest    = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput  = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON   = "ERR_INVALID_JSON"
	ErrCodeRequestTooBig = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
)

// Connection activation error codes
const (
	// ErrCodeActivationRunning is returned while another activation holds the lock
	ErrCodeActivationRunning = "ERR_ACTIVATION_IN_PROGRESS"
	// ErrCodeLoginRejected is returned when the provider displayed a login error
	ErrCodeLoginRejected = "ERR_LOGIN_REJECTED"
	// ErrCodeBrowserUnavailable is returned when no browser could be started or reached
	ErrCodeBrowserUnavailable = "ERR_BROWSER_UNAVAILABLE"
	// ErrCodeLoginFlow is returned when the login page did not behave as expected
	ErrCodeLoginFlow = "ERR_LOGIN_FLOW_FAILED"
	// ErrCodeLoginTimeout is returned when the login did not finish in time
	ErrCodeLoginTimeout = "ERR_LOGIN_TIMEOUT"
	// ErrCodeSessionCapture is returned when cookies could not be read after login
	ErrCodeSessionCapture = "ERR_SESSION_CAPTURE_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
	ErrCodeRequestTooBig: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeActivationRunning:  http.StatusConflict,
	ErrCodeLoginRejected:      http.StatusUnprocessableEntity,
	ErrCodeBrowserUnavailable: http.StatusBadGateway,
	ErrCodeLoginFlow:          http.StatusBadGateway,
	ErrCodeLoginTimeout:       http.StatusGatewayTimeout,
	ErrCodeSessionCapture:     http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code, 500 if unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps domain and infrastructure error codes to API codes
var domainCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_NAME":           ErrCodeInvalidInput,
	"INVALID_OWNER":          ErrCodeInvalidInput,
	"INVALID_STORAGE_STATE":  ErrCodeInvalidState,
	"INVALID_STATE":          ErrCodeInvalidState,
	"UNAUTHORIZED":           ErrCodeUnauthorized,
	"FORBIDDEN":              ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"ACTIVATION_IN_PROGRESS": ErrCodeActivationRunning,
	"BROWSER_UNAVAILABLE":    ErrCodeBrowserUnavailable,
	"LOGIN_FLOW_FAILED":      ErrCodeLoginFlow,
	"LOGIN_TIMEOUT":          ErrCodeLoginTimeout,
	"SESSION_CAPTURE_FAILED": ErrCodeSessionCapture,
}

// NormalizeErrorCode converts a domain error code to its API form.
// Codes already in API form, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
