package tui

import (
	"net/url"

	"github.com/xenking/kart-storefront/internal/view"
)

// Navigator receives routes the storefront does not handle itself, such as
// search requests.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(route string) { f(route) }

// SearchRoute returns the route a search query is submitted to.
func SearchRoute(query string) string {
	return "/search?" + url.Values{"q": {query}}.Encode()
}

func isCartRoute(route string) bool {
	return route == view.CartRoute
}
