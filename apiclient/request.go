package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-storefront-client/internal/errors"
)

// RequestOption adjusts how a single logical request is sent
type RequestOption func(*requestOptions)

type requestOptions struct {
	anonymous      bool
	requireSession bool
}

// Anonymous sends the request without an Authorization header and treats a 401
// as an ordinary HTTPError. Used for login and signup, where a 401 means bad
// credentials rather than an expired token.
func Anonymous() RequestOption {
	return func(o *requestOptions) {
		o.anonymous = true
	}
}

// RequireSession fails with ErrUnauthenticated without sending anything when
// no access token is stored.
func RequireSession() RequestOption {
	return func(o *requestOptions) {
		o.requireSession = true
	}
}

// pendingRequest is one logical call. The body is encoded once so that the
// replay after a refresh sends identical bytes.
type pendingRequest struct {
	id      string
	method  string
	path    string
	body    []byte
	opts    requestOptions
	retried bool
}

func newPendingRequest(method, path string, body any, opts []RequestOption) (*pendingRequest, error) {
	if method == "" || path == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "method and path are required")
	}

	pr := &pendingRequest{
		id:     uuid.NewString(),
		method: method,
		path:   path,
	}
	for _, opt := range opts {
		opt(&pr.opts)
	}

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[apiclient] encode %s %s body: %w", method, path, err)
		}
		pr.body = encoded
	}
	return pr, nil
}

func (pr *pendingRequest) bodyReader() io.Reader {
	if pr.body == nil {
		return nil
	}
	return bytes.NewReader(pr.body)
}
