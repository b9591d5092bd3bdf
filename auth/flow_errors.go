package auth

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-storefront-client/apiclient"
	apperrors "github.com/jrsteele09/go-storefront-client/internal/errors"
)

type Op string

const (
	OpLogin  Op = "login"
	OpSignup Op = "signup"
)

var defaultMessages = map[Op]string{
	OpLogin:  "Login failed",
	OpSignup: "Signup failed",
}

// networkMessage is shown when no response was received
const networkMessage = "An error occurred. Please try again."

// ErrUnauthenticated is returned by RequireSession and passed through by
// HandleError when no usable credentials remain
var ErrUnauthenticated = apperrors.ErrUnauthenticated

// FlowError is a failed login or signup. Message is what the user sees: the
// server's error text when it sent one, otherwise a generic message.
type FlowError struct {
	Op      Op
	Status  int // 0 when no response was received
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	return e.Message
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func newFlowError(op Op, err error) *FlowError {
	fe := &FlowError{Op: op, Message: defaultMessages[op], Err: err}

	var (
		httpErr *apiclient.HTTPError
		netErr  *apiclient.NetworkError
	)
	switch {
	case apperrors.As(err, &httpErr):
		fe.Status = httpErr.Status
		if httpErr.FromBody {
			fe.Message = httpErr.Message
		}
	case apperrors.As(err, &netErr):
		fe.Message = networkMessage
	}
	return fe
}

func incompleteTokens(op Op) *FlowError {
	return &FlowError{
		Op:      op,
		Status:  http.StatusOK,
		Message: defaultMessages[op],
		Err:     fmt.Errorf("[auth %s] response is missing a token", op),
	}
}
