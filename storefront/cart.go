package storefront

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-storefront-client/apiclient"
)

const cartPath = "/api/cart"

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity,omitempty"`
}

// Cart wraps the cart endpoints. Every call needs a session.
type Cart struct {
	client *apiclient.Client
}

func (c *Cart) Items(ctx context.Context) ([]CartItem, error) {
	var items []CartItem
	if err := c.client.Get(ctx, cartPath, &items, apiclient.RequireSession()); err != nil {
		return nil, fmt.Errorf("[Cart Items] %w", err)
	}
	return items, nil
}

// Add puts a product in the cart. A zero quantity is left to the backend
// default of one; adding a product already in the cart increments it.
func (c *Cart) Add(ctx context.Context, productID int64, quantity int) error {
	body := addToCartRequest{ProductID: productID, Quantity: quantity}
	if err := c.client.Post(ctx, cartPath, body, nil, apiclient.RequireSession()); err != nil {
		return fmt.Errorf("[Cart Add] %w", err)
	}
	return nil
}

func (c *Cart) Remove(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("%s/%d", cartPath, itemID)
	if err := c.client.Delete(ctx, path, nil, apiclient.RequireSession()); err != nil {
		return fmt.Errorf("[Cart Remove] %w", err)
	}
	return nil
}

// Count is the number of lines in the cart. Without a session it is zero and
// no request is made.
func (c *Cart) Count(ctx context.Context) (int, error) {
	if !c.client.Store().Get(ctx).HasAccessToken() {
		return 0, nil
	}
	items, err := c.Items(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
