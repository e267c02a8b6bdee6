package session

import (
	"errors"

	"github.com/g-but/fitfoot/internal/service/remote"
)

type ErrorKind string

const (
	KindNetwork  ErrorKind = "network"  // the request did not get a usable answer
	KindRejected ErrorKind = "rejected" // the server refused with a message
	KindInvalid  ErrorKind = "invalid"  // refused locally, nothing was sent
)

const NetworkErrorMessage = "Network error. Please try again."

// AuthError is the only error type returned by Manager operations.
// Message is safe to show to the user as is.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func invalid(message string, err error) *AuthError {
	return &AuthError{Kind: KindInvalid, Message: message, Err: err}
}

// toAuthError maps client failures to user facing errors.
// fallback is used when the server refused without saying why.
func toAuthError(err error, fallback string) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}

	re, ok := remote.AsError(err)
	if ok && re.Code == remote.CodeRejected {
		message := re.Message
		if message == "" {
			message = fallback
		}
		return &AuthError{Kind: KindRejected, Message: message, Err: err}
	}

	return &AuthError{Kind: KindNetwork, Message: NetworkErrorMessage, Err: err}
}
