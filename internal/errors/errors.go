package errors

import (
	"errors"
	"fmt"
)

// Common error types for the storefront client
var (
	// Session errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRefreshFailed   = errors.New("token refresh failed")

	// Token errors
	ErrMalformedToken = errors.New("malformed token")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// Storefront errors
	ErrCheckoutUnsupported = errors.New("checkout is not implemented")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
