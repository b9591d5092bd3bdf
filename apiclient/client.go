package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	apperrors "github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	defaultRefreshPath = "/api/auth/refresh"
	requestIDHeader    = "X-Request-ID"
	maxErrorBody       = 64 << 10
)

// Client sends requests to the storefront backend on behalf of the stored
// session. A 401 triggers one refresh of the access token and one replay of
// the original request; anything else is returned to the caller unchanged.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	store       session.Store
	refreshPath string
	logger      zerolog.Logger

	// refreshMu serializes refresh calls so concurrent 401s on the same
	// access token share one refresh
	refreshMu sync.Mutex
}

// Option modifies a Client during construction
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRefreshPath overrides the token refresh endpoint (default /api/auth/refresh)
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the backend rooted at baseURL
func New(baseURL string, store session.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidBaseURL, "[apiclient New] %q", baseURL)
	}
	if store == nil {
		return nil, fmt.Errorf("[apiclient New] session store is required")
	}

	c := &Client{
		baseURL:     u,
		httpClient:  http.DefaultClient,
		store:       store,
		refreshPath: defaultRefreshPath,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Store returns the session store the client reads credentials from
func (c *Client) Store() session.Store {
	return c.store
}

// Get issues a GET and decodes the JSON response into out (which may be nil)
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST with body encoded as JSON
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Delete issues a DELETE
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do sends one logical request. body, when non-nil, is encoded as JSON and the
// 2xx response body is decoded into out when out is non-nil.
//
// Errors: ErrUnauthenticated (wrapped) when credentials are gone, *HTTPError for
// other non-2xx statuses and *NetworkError for transport failures.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	pr, err := newPendingRequest(method, path, body, opts)
	if err != nil {
		return err
	}

	if pr.opts.requireSession && !c.store.Get(ctx).HasAccessToken() {
		c.logger.Debug().Str("request_id", pr.id).Str("path", path).Msg("No session; request not sent")
		return unauthenticated("no access token")
	}

	return c.execute(ctx, pr, out)
}

func (c *Client) execute(ctx context.Context, pr *pendingRequest, out any) error {
	sentToken, resp, err := c.send(ctx, pr)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusUnauthorized || pr.opts.anonymous {
		return c.handleResponse(pr, resp, out)
	}
	discard(resp)

	c.logger.Debug().Str("request_id", pr.id).Str("path", pr.path).Msg("Access token rejected, refreshing")
	if err := c.refresh(ctx, sentToken); err != nil {
		return err
	}

	pr.retried = true
	_, resp, err = c.send(ctx, pr)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		c.logger.Warn().Str("request_id", pr.id).Str("path", pr.path).Msg("Replay rejected after refresh, clearing session")
		c.store.Clear(ctx)
		return unauthenticated("request rejected after refresh")
	}
	return c.handleResponse(pr, resp, out)
}

// send performs a single HTTP round trip with the currently stored access
// token. It returns the token it attached so that refresh can tell whether
// another caller has already replaced it.
func (c *Client) send(ctx context.Context, pr *pendingRequest) (string, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, pr.method, c.endpoint(pr.path), pr.bodyReader())
	if err != nil {
		return "", nil, fmt.Errorf("[apiclient] build %s %s: %w", pr.method, pr.path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, pr.id)
	if pr.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var sentToken string
	if !pr.opts.anonymous {
		if tok := c.store.Get(ctx).Token(); tok != nil {
			tok.SetAuthHeader(req)
			sentToken = tok.AccessToken
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sentToken, nil, &NetworkError{Method: pr.method, Path: pr.path, Err: err}
	}

	c.logger.Debug().
		Str("request_id", pr.id).
		Str("method", pr.method).
		Str("path", pr.path).
		Bool("retried", pr.retried).
		Int("status", resp.StatusCode).
		Msg("API request")
	return sentToken, resp, nil
}

// setBearer attaches token as an Authorization: Bearer credential
func setBearer(req *http.Request, token string) {
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
}

func (c *Client) endpoint(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

func (c *Client) handleResponse(pr *pendingRequest, resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("[apiclient] decode %s %s response: %w", pr.method, pr.path, err)
	}
	return nil
}

// errorBody matches both {"error": "..."} and the {"message": "..."} shape the
// backend uses when a handler aborts
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newHTTPError(resp *http.Response) *HTTPError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	httpErr := &HTTPError{Status: resp.StatusCode}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Error != "":
			httpErr.Message = body.Error
		case body.Message != "":
			httpErr.Message = body.Message
		}
	}
	httpErr.FromBody = httpErr.Message != ""
	if httpErr.Message == "" {
		httpErr.Message = http.StatusText(resp.StatusCode)
	}
	return httpErr
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
