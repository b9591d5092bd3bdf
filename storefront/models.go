package storefront

// Product as served by GET /api/products. Description and Owner are optional.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Owner       *string `json:"owner"`
	UserID      int64   `json:"user_id"`
}

// NewProduct is the body of POST /api/products
type NewProduct struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

// CartItem is one line of the caller's cart
type CartItem struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Subtotal is price times quantity
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Total sums the subtotals of items
func Total(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// Home is the data behind the landing view
type Home struct {
	Featured  []Product
	CartCount int
	// CartErr is set when the cart count could not be loaded
	CartErr error
}
