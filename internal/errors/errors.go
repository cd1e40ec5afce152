// Package errors provides the typed errors surfaced by the Gemini web client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrAuthFailed      = errors.New("authentication failed")
	ErrCookiesExpired  = errors.New("cookies have expired")
	ErrNoCookies       = errors.New("no cookies found")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoContent       = errors.New("no content in response")
)

// ErrorCode represents known server error codes embedded in responses
type ErrorCode int

const (
	ErrCodeUsageLimitExceeded ErrorCode = 1037
	ErrCodeModelInconsistent  ErrorCode = 1050
	ErrCodeModelHeaderInvalid ErrorCode = 1052
	ErrCodeIPBlocked          ErrorCode = 1060
)

// GeminiError is the base error carrying request context.
// Specialized errors embed it so callers can inspect endpoint,
// HTTP status and a truncated response body for diagnostics.
type GeminiError struct {
	Operation  string
	Endpoint   string
	HTTPStatus int
	Body       string
	Cause      error
}

func (e *GeminiError) Error() string {
	msg := e.Operation
	if e.Endpoint != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Endpoint)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *GeminiError) Unwrap() error {
	return e.Cause
}

// WithBody attaches a (truncated) response body for diagnostics
func (e *GeminiError) WithBody(body string) *GeminiError {
	const maxBody = 2048
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	e.Body = body
	return e
}

// NewGeminiErrorWithCause creates a base error wrapping a cause
func NewGeminiErrorWithCause(operation string, cause error) *GeminiError {
	return &GeminiError{Operation: operation, Cause: cause}
}

// AuthError represents an authentication failure: missing or expired
// cookies, or the access token not being found in the init page.
type AuthError struct {
	GeminiError
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed: cookies may have expired"
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *AuthError) Is(target error) bool {
	if target == ErrAuthFailed || target == ErrCookiesExpired {
		return true
	}
	_, ok := target.(*AuthError)
	return ok
}

// NewAuthError creates a new AuthError
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// NewAuthErrorWithEndpoint creates an AuthError tagged with the endpoint
func NewAuthErrorWithEndpoint(message, endpoint string) *AuthError {
	return &AuthError{
		GeminiError: GeminiError{Operation: message, Endpoint: endpoint},
		Message:     message,
	}
}

// IsAuthError reports whether err is (or wraps) an authentication failure
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var authErr *AuthError
	return errors.As(err, &authErr) || errors.Is(err, ErrAuthFailed)
}

// APIError represents a non-200 response from an endpoint
type APIError struct {
	GeminiError
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		GeminiError: GeminiError{Operation: message, Endpoint: endpoint, HTTPStatus: statusCode},
		StatusCode:  statusCode,
		Message:     message,
	}
}

// NewAPIErrorWithBody creates an APIError keeping a truncated response body
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	err := NewAPIError(statusCode, endpoint, message)
	err.GeminiError.WithBody(body)
	return err
}

// NetworkError represents a transport-level failure (connection, TLS, timeout)
type NetworkError struct {
	GeminiError
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Cause)
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation string, cause error) *NetworkError {
	return &NetworkError{GeminiError{Operation: operation, Cause: cause}}
}

// NewNetworkErrorWithEndpoint creates a NetworkError tagged with the endpoint
func NewNetworkErrorWithEndpoint(operation, endpoint string, cause error) *NetworkError {
	return &NetworkError{GeminiError{Operation: operation, Endpoint: endpoint, Cause: cause}}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// UsageLimitError represents a usage limit exceeded error
type UsageLimitError struct {
	Message string
}

func (e *UsageLimitError) Error() string {
	if e.Message == "" {
		return "usage limit exceeded"
	}
	return fmt.Sprintf("usage limit exceeded: %s", e.Message)
}

// NewUsageLimitError creates a new UsageLimitError
func NewUsageLimitError(message string) *UsageLimitError {
	return &UsageLimitError{Message: message}
}

// ModelError represents a model-related error
type ModelError struct {
	Message string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error: %s", e.Message)
}

// NewModelError creates a new ModelError
func NewModelError(message string) *ModelError {
	return &ModelError{Message: message}
}

// BlockedError represents an IP block error
type BlockedError struct {
	Message string
}

func (e *BlockedError) Error() string {
	if e.Message == "" {
		return "content blocked"
	}
	return fmt.Sprintf("content blocked: %s", e.Message)
}

// NewBlockedError creates a new BlockedError
func NewBlockedError(message string) *BlockedError {
	return &BlockedError{Message: message}
}

// ParseError represents a response parsing error. Path is the gjson
// path that was missing or malformed, when known.
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// IsParseError reports whether err is (or wraps) a parse failure
func IsParseError(err error) bool {
	if err == nil {
		return false
	}
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// DownloadError represents a per-image fetch failure. Downloads are
// isolated: one failed image never aborts the rest of a batch.
type DownloadError struct {
	Message    string
	URL        string
	StatusCode int
	Cause      error
}

func (e *DownloadError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("download failed [%d]: %s", e.StatusCode, e.URL)
	}
	if e.Cause != nil {
		return fmt.Sprintf("download failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("download failed: %s", e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}

// NewDownloadError creates a new DownloadError
func NewDownloadError(message, url string) *DownloadError {
	return &DownloadError{Message: message, URL: url}
}

// NewDownloadErrorWithStatus creates a DownloadError for an HTTP status
func NewDownloadErrorWithStatus(url string, statusCode int) *DownloadError {
	return &DownloadError{URL: url, StatusCode: statusCode}
}

// NewDownloadNetworkError creates a DownloadError wrapping a transport failure
func NewDownloadNetworkError(url string, cause error) *DownloadError {
	return &DownloadError{Message: "request failed", URL: url, Cause: cause}
}

// HandleErrorCode converts a server error code embedded in a response
// into the matching typed error.
func HandleErrorCode(code ErrorCode, endpoint, modelName string) error {
	switch code {
	case ErrCodeUsageLimitExceeded:
		return NewUsageLimitError(fmt.Sprintf("quota exceeded for model %s", modelName))
	case ErrCodeModelInconsistent:
		return NewModelError("model response inconsistent, try again or switch models")
	case ErrCodeModelHeaderInvalid:
		return NewModelError(fmt.Sprintf("model header for %s is invalid or outdated", modelName))
	case ErrCodeIPBlocked:
		return NewBlockedError("requests from this IP are temporarily blocked")
	default:
		return NewAPIError(0, endpoint, fmt.Sprintf("server returned error code %d", code))
	}
}
