package storefront

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-storefront-client/apiclient"
)

const (
	productsPath   = "/api/products"
	myProductsPath = "/api/products/my"
)

// Products wraps the product endpoints
type Products struct {
	client *apiclient.Client
}

// List returns every product. The listing is public; a stored token is sent
// when present.
func (p *Products) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := p.client.Get(ctx, productsPath, &products); err != nil {
		return nil, fmt.Errorf("[Products List] %w", err)
	}
	return products, nil
}

// Featured returns the first n products of the listing
func (p *Products) Featured(ctx context.Context, n int) ([]Product, error) {
	products, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(products) > n {
		products = products[:n]
	}
	return products, nil
}

// Mine returns the products created by the logged in user
func (p *Products) Mine(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := p.client.Get(ctx, myProductsPath, &products, apiclient.RequireSession()); err != nil {
		return nil, fmt.Errorf("[Products Mine] %w", err)
	}
	return products, nil
}

// Add creates a product. The backend only allows admins to do so.
func (p *Products) Add(ctx context.Context, np NewProduct) (*Product, error) {
	created := &Product{}
	if err := p.client.Post(ctx, productsPath, np, created, apiclient.RequireSession()); err != nil {
		return nil, fmt.Errorf("[Products Add] %w", err)
	}
	return created, nil
}

// Delete removes a product owned by the caller
func (p *Products) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("%s/%d", productsPath, id)
	if err := p.client.Delete(ctx, path, nil, apiclient.RequireSession()); err != nil {
		return fmt.Errorf("[Products Delete] %w", err)
	}
	return nil
}
