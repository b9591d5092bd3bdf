package main

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/jrsteele09/go-storefront-client/session"
	"github.com/jrsteele09/go-storefront-client/storefront"
	"github.com/jrsteele09/go-storefront-client/storefront/fakeapi"
	"github.com/rs/zerolog/log"
)

// demoCmd runs a scripted session against an in-process backend: an admin adds
// products, a user shops, the access token expires mid-session and is
// refreshed, then the user logs out.
func demoCmd(ctx context.Context, c config.Config, _ []string, out io.Writer) error {
	gin.SetMode(gin.ReleaseMode)
	api := fakeapi.New()
	server := api.Start()
	defer server.Close()
	log.Info().Str("url", server.URL).Msg("Demo backend listening")

	a, err := newApp(c, out, log.Logger, withBaseURL(server.URL), withStore(session.NewMemoryStore()))
	if err != nil {
		return err
	}
	defer a.Close()

	steps := []struct {
		title string
		run   func() error
	}{
		{"Log in as admin", func() error { return a.auth.Login(ctx, fakeapi.AdminUsername, fakeapi.AdminPassword) }},
		{"Add products", func() error {
			for _, p := range []storefront.NewProduct{
				{Name: "Premium Coffee", Description: "Single origin arabica", Price: 12.99},
				{Name: "Ceramic Mug", Price: 8.5},
				{Name: "Pour Over Kit", Description: "Dripper and filters", Price: 24},
			} {
				if _, err := a.shop.Products.Add(ctx, p); err != nil {
					return err
				}
			}
			return nil
		}},
		{"Log out", func() error { a.auth.Logout(ctx); return nil }},
		{"Browse as a guest", func() error { return homeCmd(ctx, a, nil) }},
		{"Add to cart without a session", func() error {
			_ = a.report(a.shop.Cart.Add(ctx, 1, 0))
			return nil
		}},
		{"Log in as test", func() error { return a.auth.Login(ctx, fakeapi.TestUsername, fakeapi.TestPassword) }},
		{"Fill the cart", func() error {
			if err := a.shop.Cart.Add(ctx, 1, 0); err != nil {
				return err
			}
			if err := a.shop.Cart.Add(ctx, 1, 0); err != nil {
				return err
			}
			return a.shop.Cart.Add(ctx, 2, 0)
		}},
		{"Expire the access token and load home", func() error {
			api.ExpireAccessTokens()
			if err := homeCmd(ctx, a, nil); err != nil {
				return err
			}
			a.ui.Info(fmt.Sprintf("Refresh calls: %d", api.Calls("POST /api/auth/refresh")))
			return nil
		}},
		{"Show the cart", func() error { return cartCmd(ctx, a, []string{"list"}) }},
		{"Try to delete the admin's product", func() error {
			_ = a.report(a.shop.Products.Delete(ctx, 1))
			return nil
		}},
		{"Check out", func() error { return cartCmd(ctx, a, []string{"checkout"}) }},
		{"Log out", func() error { a.auth.Logout(ctx); return nil }},
	}

	for i, step := range steps {
		fmt.Fprintf(out, "\n%d. %s\n", i+1, step.title)
		if err := step.run(); err != nil {
			return a.report(err)
		}
	}
	return nil
}
