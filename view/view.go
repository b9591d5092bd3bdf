// Package view declares the rendering collaborators the client drives. The
// client never builds markup itself; it hands fetched data to these
// interfaces and asks them to move between screens.
package view

import "github.com/jrsteele09/go-storefront-client/storefront"

// Navigator switches between the top level screens
type Navigator interface {
	ToLogin()
	ToAuthenticatedArea()
	ToLanding()
}

// ProductView renders a product listing. accessToken is the caller's current
// token, used only to mark products the caller owns.
type ProductView interface {
	ShowProducts(products []storefront.Product, accessToken string)
}

type CartView interface {
	ShowCart(items []storefront.CartItem)
	ShowCartCount(count int)
}

// Notifier reports the outcome of an action to the user
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// Views bundles every collaborator
type Views interface {
	Navigator
	ProductView
	CartView
	Notifier
}
