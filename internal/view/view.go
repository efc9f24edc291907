// Package view projects listing state onto the visual tree of the page.
//
// Render is pure: the same State and Options always produce the same Page.
// Front ends walk the tree and draw it with their own toolkit.
package view

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/listing"
)

// CartRoute is the navigation target of the cart icon.
const CartRoute = "/cart-summary"

// AddToCartLabel is the caption of the product card action.
const AddToCartLabel = "Add to cart"

// Options control presentation details that are not part of the state.
type Options struct {
	// CurrencySuffix is appended to formatted prices.
	CurrencySuffix string
	// SearchQuery is the text currently typed into the search box.
	SearchQuery string
}

// Page is the root of the visual tree.
type Page struct {
	NavBar NavBar
	// Alert is nil unless the success alert is visible.
	Alert *Banner
	Grid  []Card
	// Pagination is nil when there is a single page.
	Pagination *Pagination
}

// NavBar is always rendered. Search is handled by the navigation
// collaborator; the cart icon navigates to Cart.Route.
type NavBar struct {
	Search SearchBox
	Cart   CartIcon
}

// SearchBox is the search input of the navigation bar.
type SearchBox struct {
	Query string
}

// CartIcon is the clickable cart badge.
type CartIcon struct {
	Count int
	Route string
}

// Banner is the transient success alert.
type Banner struct {
	Message string
}

// Card shows a single product.
type Card struct {
	ProductID product.ID
	Name      string
	ImageURL  string
	Price     string
	Action    string
}

// Pagination lists one item per page.
type Pagination struct {
	Items []PageItem
}

// PageItem is a selectable page number.
type PageItem struct {
	Number int
	Active bool
}

// Active returns the active page number, or 0 if none is active.
func (p *Pagination) Active() int {
	if p == nil {
		return 0
	}
	for _, it := range p.Items {
		if it.Active {
			return it.Number
		}
	}
	return 0
}

// Render builds the visual tree for s.
func Render(s listing.State, opts Options) Page {
	page := Page{
		NavBar: NavBar{
			Search: SearchBox{Query: opts.SearchQuery},
			Cart: CartIcon{
				Count: s.CartItemCount,
				Route: CartRoute,
			},
		},
	}

	if s.Alert.Visible {
		page.Alert = &Banner{Message: s.Alert.Message}
	}

	if len(s.Products) > 0 {
		page.Grid = make([]Card, len(s.Products))
		for i, p := range s.Products {
			page.Grid[i] = Card{
				ProductID: p.ID,
				Name:      p.Name,
				ImageURL:  p.ImageURL,
				Price:     FormatPrice(p.Price, opts.CurrencySuffix),
				Action:    AddToCartLabel,
			}
		}
	}

	if s.TotalPages > 1 {
		items := make([]PageItem, s.TotalPages)
		for i := range items {
			n := i + 1
			items[i] = PageItem{Number: n, Active: n == s.CurrentPage}
		}
		page.Pagination = &Pagination{Items: items}
	}

	return page
}

// FormatPrice renders a price with two decimals followed by the currency
// suffix, e.g. "12.50 USD".
func FormatPrice(price decimal.Decimal, suffix string) string {
	s := price.StringFixed(2)
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return s
	}
	return s + " " + suffix
}
