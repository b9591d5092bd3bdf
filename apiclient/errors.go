package apiclient

import (
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-storefront-client/internal/errors"
)

// ErrUnauthenticated means no usable credentials remain: the refresh token was
// absent, the refresh call failed, or the replayed request was rejected again.
// Callers treat it as "prompt the user to log in".
var ErrUnauthenticated = apperrors.ErrUnauthenticated

// HTTPError is a non-2xx response (other than a 401 handled by the refresh
// protocol). Message is the server's {"error": "..."} text when present,
// otherwise the status text; FromBody tells the two apart.
type HTTPError struct {
	Status   int
	Message  string
	FromBody bool
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// NetworkError wraps a transport failure. It is never retried.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// unauthenticated wraps ErrUnauthenticated with the reason it was reached
func unauthenticated(reason string) error {
	return fmt.Errorf("%w: %s", ErrUnauthenticated, reason)
}

// IsStatus reports whether err is an HTTPError with the given status code
func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	return apperrors.As(err, &httpErr) && httpErr.Status == status
}

// IsNotFound is a convenience for IsStatus(err, http.StatusNotFound)
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
