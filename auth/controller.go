// Package auth drives login, signup and logout and reports where the stored
// session sits in its lifecycle.
package auth

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-storefront-client/apiclient"
	apperrors "github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/session"
	"github.com/jrsteele09/go-storefront-client/token"
	"github.com/jrsteele09/go-storefront-client/view"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	loginPath  = "/api/auth/login"
	signupPath = "/api/auth/signup"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Controller runs the auth flows against the backend and moves the navigator
// between screens
type Controller struct {
	client  *apiclient.Client
	store   session.Store
	nav     view.Navigator
	logger  zerolog.Logger
	nowTime func() time.Time

	// lost is set when a request ended in ErrUnauthenticated
	lost atomic.Bool
}

// ControllerOption defines a function type to modify the Controller instance.
type ControllerOption func(*Controller)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a Controller using the client's session store
func New(client *apiclient.Client, nav view.Navigator, opts ...ControllerOption) *Controller {
	if nav == nil {
		nav = view.Nop{}
	}
	c := &Controller{
		client:  client,
		store:   client.Store(),
		nav:     nav,
		logger:  log.Logger,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login posts the credentials and stores the returned token pair. On failure
// nothing is stored and a *FlowError carries the message to show.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, OpLogin, loginPath, loginRequest{Username: username, Password: password})
}

// Signup creates an account. The backend returns a token pair, so a successful
// signup is also a login.
func (c *Controller) Signup(ctx context.Context, username, email, password string) error {
	return c.authenticate(ctx, OpSignup, signupPath, signupRequest{Username: username, Email: email, Password: password})
}

func (c *Controller) authenticate(ctx context.Context, op Op, path string, body any) error {
	var resp tokenResponse
	if err := c.client.Post(ctx, path, body, &resp, apiclient.Anonymous()); err != nil {
		c.logger.Info().Err(err).Str("op", string(op)).Msg("Authentication failed")
		return newFlowError(op, err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		c.logger.Warn().Str("op", string(op)).Msg("Authentication response is missing a token")
		return incompleteTokens(op)
	}

	c.store.Set(ctx, resp.AccessToken, resp.RefreshToken)
	c.lost.Store(false)
	c.logger.Debug().Str("op", string(op)).Msg("Session stored")
	c.nav.ToAuthenticatedArea()
	return nil
}

// Logout clears the session without contacting the backend. Calling it again
// has the same result.
func (c *Controller) Logout(ctx context.Context) {
	c.store.Clear(ctx)
	c.lost.Store(false)
	c.nav.ToLanding()
}

// RequireSession guards a screen that needs a login. It navigates to the
// login screen and returns ErrUnauthenticated when no access token is stored.
func (c *Controller) RequireSession(ctx context.Context) error {
	if c.store.Get(ctx).HasAccessToken() {
		return nil
	}
	c.nav.ToLogin()
	return apperrors.Wrapf(ErrUnauthenticated, "[auth RequireSession] no access token")
}

// HandleError sends the user to the login screen when err means the session
// is gone. err is returned unchanged.
func (c *Controller) HandleError(err error) error {
	if apperrors.Is(err, ErrUnauthenticated) {
		c.lost.Store(true)
		c.nav.ToLogin()
	}
	return err
}

// State derives the lifecycle state from the stored tokens
func (c *Controller) State(ctx context.Context) State {
	s := c.store.Get(ctx)
	switch {
	case s.IsEmpty() && c.lost.Load():
		return Unauthenticated
	case s.IsEmpty():
		return Anonymous
	case !s.HasAccessToken():
		return AccessExpired
	}

	identity, err := token.Decode(s.AccessToken)
	if err == nil && identity.Expired(c.nowTime()) {
		return AccessExpired
	}
	return Authenticated
}

// Subject is the "sub" claim of the stored access token, for display
func (c *Controller) Subject(ctx context.Context) (string, bool) {
	return token.DecodeSubject(c.store.Get(ctx).AccessToken)
}

// Identity decodes the stored access token, nil when absent or malformed
func (c *Controller) Identity(ctx context.Context) *token.Identity {
	identity, err := token.Decode(c.store.Get(ctx).AccessToken)
	if err != nil {
		return nil
	}
	return identity
}
