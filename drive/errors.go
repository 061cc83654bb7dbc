package drive

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, drive.ErrUnauthorized) to check.
var (
	ErrBadRequest    = errors.New("drive: bad request")
	ErrUnauthorized  = errors.New("drive: unauthorized")
	ErrForbidden     = errors.New("drive: forbidden")
	ErrNotFound      = errors.New("drive: not found")
	ErrTooLarge      = errors.New("drive: file too large")
	ErrThrottled     = errors.New("drive: throttled")
	ErrServerError   = errors.New("drive: server error")
	ErrUnexpected    = errors.New("drive: unexpected response")
	ErrNoSessionURL  = errors.New("drive: upload session has no location")
	ErrEmptyUpload   = errors.New("drive: nothing to upload")
	ErrIncompleteRun = errors.New("drive: upload ended before the last byte was accepted")
)

// APIError wraps a sentinel error with the HTTP status code and the message
// the API returned.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("drive: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusRequestEntityTooLarge:
		return ErrTooLarge
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}
		return ErrUnexpected
	}
}

// newAPIError builds an APIError from a failed response body. Drive reports
// failures as {"error": {"code": ..., "message": "..."}}; anything else is
// kept verbatim.
func newAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg, Err: classifyStatus(status)}
}
