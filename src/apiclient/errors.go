package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elee1766/playground/src/chat"
)

var (
	// ErrMissingID indicates an empty path identifier
	ErrMissingID = errors.New("identifier is required")

	// ErrMissingUser indicates the user handle is empty
	ErrMissingUser = errors.New("user id is required")
)

var _ chat.Rejection = (*APIError)(nil)

// envelope is the status wrapper every backend endpoint answers with.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	Details string          `json:"details,omitempty"`
}

// messageText returns the "message" field when it is a string; successful
// message appends return an object there instead.
func (e envelope) messageText() string {
	var s string
	if len(e.Message) == 0 || json.Unmarshal(e.Message, &s) != nil {
		return ""
	}
	return s
}

func (e envelope) rejection(status int) *APIError {
	return &APIError{
		StatusCode: status,
		Reason:     e.Error,
		Message:    e.messageText(),
		Details:    e.Details,
	}
}

// APIError is a well-formed rejection from the backend: either a non-2xx
// status with a JSON body or a 2xx body reporting success:false.
type APIError struct {
	StatusCode int
	Reason     string // "error" field
	Message    string // "message" field
	Details    string // "details" field
}

// Error implements the error interface.
func (e *APIError) Error() string {
	text := strings.TrimSpace(e.ServerReason())
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	if extra := strings.TrimSpace(e.detail()); extra != "" && extra != text {
		text += ": " + extra
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, text)
}

// ServerReason returns the most specific server-reported error text.
func (e *APIError) ServerReason() string {
	switch {
	case e.Reason != "":
		return e.Reason
	case e.Message != "":
		return e.Message
	default:
		return e.Details
	}
}

// Explanation prefers the human-oriented message or details over the short
// error label.
func (e *APIError) Explanation() string {
	if d := strings.TrimSpace(e.detail()); d != "" {
		return d
	}
	return strings.TrimSpace(e.ServerReason())
}

func (e *APIError) detail() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Details
}

// IsRetryable returns true if the error is retryable.
func (e *APIError) IsRetryable() bool {
	// 5xx errors are generally retryable
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests
}

// TransportError is a failure with no server opinion attached: the request
// never completed, or the response could not be understood.
type TransportError struct {
	Op         string
	StatusCode int // set when a response arrived but was unreadable
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsServerRejection reports whether err is a well-formed server rejection.
func IsServerRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	// unreadable 4xx answers are final
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode == 0 || te.StatusCode >= 500
	}
	return false
}
