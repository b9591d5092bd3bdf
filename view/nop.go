package view

import "github.com/jrsteele09/go-storefront-client/storefront"

// Nop discards everything. Useful where no screen is attached.
type Nop struct{}

var _ Views = Nop{}

func (Nop) ToLogin()                                      {}
func (Nop) ToAuthenticatedArea()                          {}
func (Nop) ToLanding()                                    {}
func (Nop) ShowProducts(_ []storefront.Product, _ string) {}
func (Nop) ShowCart(_ []storefront.CartItem)              {}
func (Nop) ShowCartCount(_ int)                           {}
func (Nop) Info(_ string)                                 {}
func (Nop) Error(_ string)                                {}
