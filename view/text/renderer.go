// Package text renders the storefront views to a terminal
package text

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jrsteele09/go-storefront-client/internal/utils"
	"github.com/jrsteele09/go-storefront-client/storefront"
	"github.com/jrsteele09/go-storefront-client/token"
	"github.com/jrsteele09/go-storefront-client/view"
)

type Screen string

const (
	ScreenNone    Screen = ""
	ScreenLogin   Screen = "login"
	ScreenLanding Screen = "landing"
	ScreenApp     Screen = "products"
)

const (
	noDescription = "No description available"
	unknownOwner  = "Unknown"
	emptyCart     = "Your cart is empty"
	ownerMarker   = "[yours]"
)

var _ view.Views = (*Renderer)(nil)

// Renderer writes every view to w. It is safe for concurrent use.
type Renderer struct {
	mu     sync.Mutex
	w      io.Writer
	colour bool
	screen Screen
}

type Option func(*Renderer)

// WithColour enables ANSI colour output
func WithColour(enabled bool) Option {
	return func(r *Renderer) {
		r.colour = enabled
	}
}

func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{w: w}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Screen is the last screen navigated to
func (r *Renderer) Screen() Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screen
}

func (r *Renderer) ToLogin() {
	r.navigate(ScreenLogin, "Please log in to continue")
}

func (r *Renderer) ToAuthenticatedArea() {
	r.navigate(ScreenApp, "Welcome to ShopSphere")
}

func (r *Renderer) ToLanding() {
	r.navigate(ScreenLanding, "Logged out")
}

func (r *Renderer) navigate(screen Screen, banner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = screen
	fmt.Fprintf(r.w, "%s\n", r.paint(screenColors[screen], "== "+banner+" =="))
}

// ShowProducts lists products, marking those owned by the holder of accessToken
func (r *Renderer) ShowProducts(products []storefront.Product, accessToken string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(products) == 0 {
		fmt.Fprintln(r.w, "No products found")
		return
	}
	for _, p := range products {
		name := r.paint(Cyan, p.Name)
		if token.IsOwner(accessToken, p.UserID) {
			name += " " + r.paint(Yellow, ownerMarker)
		}
		fmt.Fprintf(r.w, "#%d %s  %s\n", p.ID, name, r.paint(Green, FormatPrice(p.Price)))
		fmt.Fprintf(r.w, "    %s\n", describe(p.Description))
		fmt.Fprintf(r.w, "    %s\n", r.paint(Gray, "Added by: "+utils.ValueOr(p.Owner, unknownOwner)))
	}
}

func (r *Renderer) ShowCart(items []storefront.CartItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(items) == 0 {
		fmt.Fprintln(r.w, emptyCart)
		fmt.Fprintf(r.w, "Total: %s\n", FormatPrice(0))
		return
	}
	for _, item := range items {
		fmt.Fprintf(r.w, "#%d %s  %s x %d\n", item.ID, r.paint(Cyan, item.Name), FormatPrice(item.Price), item.Quantity)
	}
	fmt.Fprintf(r.w, "Total: %s\n", r.paint(Green, FormatPrice(storefront.Total(items))))
}

func (r *Renderer) ShowCartCount(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "Cart (%d)\n", count)
}

func (r *Renderer) Info(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, r.paint(Blue, msg))
}

func (r *Renderer) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, r.paint(Red, "Error: "+msg))
}

func (r *Renderer) paint(colour, s string) string {
	if !r.colour || colour == "" {
		return s
	}
	return colour + s + ResetColor
}

// FormatPrice renders a price with two decimals, e.g. $12.99
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

func describe(description *string) string {
	if d := strings.TrimSpace(utils.Value(description)); d != "" {
		return d
	}
	return noDescription
}
