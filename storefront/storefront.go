// Package storefront provides typed access to the ShopSphere product and cart
// endpoints on top of the authenticated request client.
package storefront

import (
	"context"

	"github.com/jrsteele09/go-storefront-client/apiclient"
	apperrors "github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultFeaturedCount = 6

// ErrCheckoutUnsupported is returned by Checkout
var ErrCheckoutUnsupported = apperrors.ErrCheckoutUnsupported

type Storefront struct {
	Products *Products
	Cart     *Cart

	featuredCount int
	logger        zerolog.Logger
}

type Option func(*Storefront)

// WithFeaturedCount sets how many products the home view shows (default 6)
func WithFeaturedCount(n int) Option {
	return func(s *Storefront) {
		if n > 0 {
			s.featuredCount = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Storefront) {
		s.logger = logger
	}
}

func New(client *apiclient.Client, opts ...Option) *Storefront {
	s := &Storefront{
		Products:      &Products{client: client},
		Cart:          &Cart{client: client},
		featuredCount: defaultFeaturedCount,
		logger:        log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadHome fetches the featured products and the cart count concurrently.
// Both requests go through the same client, so an expired access token is
// refreshed once for the pair. A failed cart count does not fail the call: it
// is reported in Home.CartErr with a count of zero.
func (s *Storefront) LoadHome(ctx context.Context) (*Home, error) {
	home := &Home{}
	var g errgroup.Group

	g.Go(func() error {
		featured, err := s.Products.Featured(ctx, s.featuredCount)
		if err != nil {
			return err
		}
		home.Featured = featured
		return nil
	})
	g.Go(func() error {
		count, err := s.Cart.Count(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Cart count failed")
			home.CartErr = err
			return nil
		}
		home.CartCount = count
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Debug().Err(err).Msg("Home view load failed")
		return nil, err
	}
	return home, nil
}

// Checkout is not offered by the backend
func (s *Storefront) Checkout(_ context.Context, items []CartItem) error {
	s.logger.Info().Int("items", len(items)).Float64("total", Total(items)).Msg("Checkout requested")
	return ErrCheckoutUnsupported
}
