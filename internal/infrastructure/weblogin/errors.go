package weblogin

import "fmt"

// Error codes for login flow failures
const (
	ErrCodeBrowserUnavailable = "BROWSER_UNAVAILABLE"
	ErrCodeLoginFlow          = "LOGIN_FLOW_FAILED"
	ErrCodeLoginTimeout       = "LOGIN_TIMEOUT"
	ErrCodeSessionCapture     = "SESSION_CAPTURE_FAILED"
)

// LoginError is a failure of the browser flow itself, as opposed to the site
// rejecting the credentials.
type LoginError struct {
	Code    string
	Message string
	Cause   error
}

func (e *LoginError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoginError) Unwrap() error {
	return e.Cause
}

// NewLoginError creates a new LoginError
func NewLoginError(code, message string, cause error) *LoginError {
	return &LoginError{Code: code, Message: message, Cause: cause}
}
