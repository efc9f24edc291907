package listing

import (
	"slices"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

// Alert is the transient success banner shown after an item is added to the
// cart. ID identifies the scheduled dismissal that owns it.
type Alert struct {
	Visible bool
	Message string
	ID      uint64
}

// State is a snapshot of the listing page.
type State struct {
	// Products holds the current page only, in backend order.
	Products []product.Product
	// CurrentPage is 1-based.
	CurrentPage int
	// TotalPages is derived from the count reported by the latest applied
	// product fetch and is never less than one.
	TotalPages int
	// CartItemCount is the last known server value plus successful local
	// additions since then.
	CartItemCount int
	Alert         Alert

	LoadingProducts bool
	LoadingCart     bool
}

func initialState() State {
	return State{
		CurrentPage: 1,
		TotalPages:  1,
	}
}

func (s State) clone() State {
	s.Products = slices.Clone(s.Products)
	return s
}
