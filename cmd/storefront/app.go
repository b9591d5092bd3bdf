package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/jrsteele09/go-storefront-client/apiclient"
	"github.com/jrsteele09/go-storefront-client/auth"
	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/jrsteele09/go-storefront-client/session"
	"github.com/jrsteele09/go-storefront-client/storefront"
	"github.com/jrsteele09/go-storefront-client/view/text"
	"github.com/rs/zerolog"
)

// app holds everything a command needs
type app struct {
	cfg     config.Config
	baseURL string
	logger  zerolog.Logger

	store      session.Store
	closeStore func() error
	client     *apiclient.Client
	auth       *auth.Controller
	shop       *storefront.Storefront
	ui         *text.Renderer
}

type appOption func(*appSettings)

type appSettings struct {
	baseURL string
	store   session.Store
}

// withBaseURL points the app at a backend other than BASE_URL
func withBaseURL(url string) appOption {
	return func(s *appSettings) {
		s.baseURL = url
	}
}

// withStore replaces the configured session backend
func withStore(store session.Store) appOption {
	return func(s *appSettings) {
		s.store = store
	}
}

func newApp(cfg config.Config, out io.Writer, logger zerolog.Logger, opts ...appOption) (*app, error) {
	settings := appSettings{baseURL: cfg.GetBaseURL()}
	for _, opt := range opts {
		opt(&settings)
	}

	a := &app{
		cfg:        cfg,
		baseURL:    settings.baseURL,
		logger:     logger,
		store:      settings.store,
		closeStore: func() error { return nil },
		ui:         text.New(out, text.WithColour(isTerminal(out))),
	}

	if a.store == nil {
		store, closeStore, err := session.NewFromConfig(cfg, logger)
		if err != nil {
			return nil, err
		}
		a.store, a.closeStore = store, closeStore
	}

	client, err := apiclient.New(a.baseURL, a.store,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.GetRequestTimeout()}),
		apiclient.WithRefreshPath(cfg.GetRefreshPath()),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		_ = a.closeStore()
		return nil, err
	}
	a.client = client
	a.auth = auth.New(client, a.ui, auth.WithLogger(logger))
	a.shop = storefront.New(client, storefront.WithFeaturedCount(cfg.GetFeaturedCount()), storefront.WithLogger(logger))
	return a, nil
}

func (a *app) Close() {
	if err := a.closeStore(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close session store")
	}
}

// report shows err to the user and returns it. A lost session sends the user
// to the login screen.
func (a *app) report(err error) error {
	if err == nil {
		return nil
	}

	var (
		flowErr *auth.FlowError
		httpErr *apiclient.HTTPError
		netErr  *apiclient.NetworkError
		usage   *usageError
	)
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		a.auth.HandleError(err)
	case errors.As(err, &flowErr):
		a.ui.Error(flowErr.Message)
	case errors.As(err, &httpErr):
		a.ui.Error(httpErr.Message)
	case errors.As(err, &netErr):
		a.ui.Error("Could not reach " + a.baseURL)
		a.logger.Debug().Err(err).Msg("Network error")
	case errors.As(err, &usage):
		a.ui.Error(usage.Error())
	default:
		a.ui.Error(err.Error())
	}
	return err
}
