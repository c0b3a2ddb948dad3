package registryapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed registry call.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindTooLarge     ErrorKind = "too_large"
	KindServer       ErrorKind = "server"
	KindNetwork      ErrorKind = "network"
	KindUnexpected   ErrorKind = "unexpected"
)

// APIError is returned for every failed registry call.
type APIError struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	// Message is safe to show to the user.
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("registry %s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("registry %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("registry %s: %s", e.Op, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the user may simply try again. An unauthorized
// error requires signing in first.
func (e *APIError) Retryable() bool {
	return e.Kind != KindUnauthorized
}

// UserMessage returns the message to show the user.
func (e *APIError) UserMessage() string {
	return e.Message
}

// IsUnauthorized reports whether err means the session must re-authenticate.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized
}

// KindOf returns the kind of an *APIError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

const (
	msgValidation    = "Invalid data. Check the form fields and try again."
	msgUnprocessable = "The server rejected the data during validation."
	msgUnauthorized  = "Your session has expired. Please sign in again."
	msgForbidden     = "You do not have permission to modify this business."
	msgNotFound      = "The business was not found."
	msgTooLarge      = "The files are too large. Reduce their size and try again."
	msgServer        = "Server error. Please try again later."
	msgNetwork       = "No connection to the server. Check your internet connection."
	msgUnexpected    = "Unexpected response from the registry."
)

// classify maps an HTTP status and optional server message to an APIError.
func classify(op string, status int, serverMessage string) *APIError {
	serverMessage = strings.TrimSpace(serverMessage)
	e := &APIError{Op: op, StatusCode: status}

	switch {
	case status == http.StatusBadRequest:
		e.Kind, e.Message = KindValidation, msgValidation
		if serverMessage != "" {
			e.Message = serverMessage
		}
	case status == http.StatusUnprocessableEntity:
		e.Kind, e.Message = KindValidation, msgUnprocessable
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, msgUnauthorized
	case status == http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, msgForbidden
	case status == http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, msgNotFound
	case status == http.StatusRequestEntityTooLarge:
		e.Kind, e.Message = KindTooLarge, msgTooLarge
	case status >= 500:
		e.Kind, e.Message = KindServer, msgServer
	default:
		e.Kind, e.Message = KindUnexpected, msgUnexpected
		if serverMessage != "" {
			e.Message = serverMessage
		}
	}
	return e
}

func networkError(op string, err error) *APIError {
	return &APIError{Op: op, Kind: KindNetwork, Message: msgNetwork, Err: err}
}

func unauthenticated(op string, err error) *APIError {
	return &APIError{Op: op, Kind: KindUnauthorized, Message: msgUnauthorized, Err: err}
}

func unexpected(op string, err error) *APIError {
	return &APIError{Op: op, Kind: KindUnexpected, Message: msgUnexpected, Err: err}
}
