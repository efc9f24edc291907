package cart

import (
	"context"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

// Line represents a single line item in the shopping cart.
type Line struct {
	ProductID product.ID
	Quantity  int
}

// Summary is the aggregated view of the current cart contents.
type Summary struct {
	Lines []Line
}

// ItemCount returns the total quantity across all lines. Negative quantities
// are ignored.
func (s *Summary) ItemCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, l := range s.Lines {
		if l.Quantity > 0 {
			n += l.Quantity
		}
	}
	return n
}

// Repository defines the cart operations offered by the backend.
type Repository interface {
	Summary(ctx context.Context) (*Summary, error)
	Add(ctx context.Context, id product.ID, quantity int) error
}
