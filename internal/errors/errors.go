package errors

import (
	"errors"
	"fmt"
)

// Error kinds for the uploader. Operations wrap one of these with context and
// the HTTP layer classifies them with Is.
var (
	// Startup errors
	ErrConfiguration = errors.New("configuration error")

	// Authorization errors
	ErrAuthExchange    = errors.New("authorization exchange failed")
	ErrUnauthenticated = errors.New("not authenticated with storage provider")

	// Content errors
	ErrMissingPayload  = errors.New("no file provided")
	ErrRemoteFetch     = errors.New("remote fetch failed")
	ErrPayloadTooLarge = errors.New("payload too large")

	// Storage provider errors
	ErrUploadService = errors.New("upload failed")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Kind attaches a sentinel kind to a cause so both match with Is.
func Kind(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need only one errors import.
func New(text string) error {
	return errors.New(text)
}
