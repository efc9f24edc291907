package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// PageSize is the number of products requested per catalog page.
const PageSize = 12

// ID identifies a product as issued by the backend. The backend may encode
// identifiers either as JSON numbers or as JSON strings; ID remembers which
// form it arrived in so it can be sent back unchanged.
type ID struct {
	value   string
	numeric bool
}

// StringID returns an ID that is encoded as a JSON string.
func StringID(v string) ID {
	return ID{value: v}
}

// NumericID returns an ID that is encoded as a JSON number. The value must be
// the literal decimal representation of the number.
func NumericID(v string) ID {
	return ID{value: v, numeric: true}
}

// ParseID interprets user input: canonical non-negative integers become
// numeric IDs, everything else (including values with leading zeros, which
// are not valid JSON numbers) a string ID.
func ParseID(s string) ID {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}
	}
	if len(s) > 1 && s[0] == '0' {
		return StringID(s)
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return StringID(s)
		}
	}
	return NumericID(s)
}

func (id ID) String() string { return id.value }

// IsNumeric reports whether the ID is encoded as a JSON number.
func (id ID) IsNumeric() bool { return id.numeric }

// IsZero reports whether the ID is empty.
func (id ID) IsZero() bool { return id.value == "" }

// Product represents a catalog item available for purchase.
type Product struct {
	ID       ID
	Name     string
	Price    decimal.Decimal
	ImageURL string
}

// Page is a single page of the catalog together with the total number of
// products the backend reports across all pages.
type Page struct {
	Products []Product
	Count    int
}

// TotalPages returns the number of pages needed to show count products,
// never less than one.
func TotalPages(count int) int {
	if count <= 0 {
		return 1
	}
	n := count / PageSize
	if count%PageSize != 0 {
		n++
	}
	return n
}

// Catalog defines read operations for the product catalog.
type Catalog interface {
	List(ctx context.Context, page, pageSize int) (*Page, error)
}
