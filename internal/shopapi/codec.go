package shopapi

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// ErrDecode matches every DecodeError.
var ErrDecode = errors.New("malformed response")

// DecodeError is returned when a response body cannot be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "malformed response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) report true.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(err error) error {
	return &DecodeError{Err: err}
}

// decodeProductPage parses {"results": [...], "count": N}.
func decodeProductPage(data []byte) (*product.Page, error) {
	var p product.Page
	d := jx.DecodeBytes(data)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "results":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeProduct(d)
				if err != nil {
					return err
				}
				p.Products = append(p.Products, item)
				return nil
			})
		case "count":
			n, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "count")
			}
			p.Count = n
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, decodeErr(err)
	}
	return &p, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = decodeID(d)
		case "name":
			p.Name, err = decodeOptString(d)
		case "price":
			p.Price, err = decodePrice(d)
		case "image_url":
			p.ImageURL, err = decodeOptString(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, string(key))
		}
		return nil
	})
	return p, err
}

// decodeCartSummary parses {"cart_products": [{"quantity": N, ...}]}.
func decodeCartSummary(data []byte) (*cart.Summary, error) {
	var s cart.Summary
	d := jx.DecodeBytes(data)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "cart_products" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		return d.Arr(func(d *jx.Decoder) error {
			line, err := decodeCartLine(d)
			if err != nil {
				return err
			}
			s.Lines = append(s.Lines, line)
			return nil
		})
	})
	if err != nil {
		return nil, decodeErr(err)
	}
	return &s, nil
}

func decodeCartLine(d *jx.Decoder) (cart.Line, error) {
	var l cart.Line
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "quantity":
			l.Quantity, err = d.Int()
		case "product_id":
			l.ProductID, err = decodeID(d)
		case "product":
			// Either a bare identifier or an embedded product object.
			if d.Next() != jx.Object {
				l.ProductID, err = decodeID(d)
				break
			}
			err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "id" {
					return d.Skip()
				}
				var err error
				l.ProductID, err = decodeID(d)
				return err
			})
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, string(key))
		}
		return nil
	})
	return l, err
}

func decodeID(d *jx.Decoder) (product.ID, error) {
	switch tt := d.Next(); tt {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return product.ID{}, err
		}
		return product.NumericID(n.String()), nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return product.ID{}, err
		}
		return product.StringID(s), nil
	default:
		return product.ID{}, errors.Errorf("unexpected id type %s", tt)
	}
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch tt := d.Next(); tt {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Null:
		return decimal.Zero, d.Null()
	default:
		return decimal.Zero, errors.Errorf("unexpected price type %s", tt)
	}
}

func decodeOptString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// encodeAddProduct builds {"product_id": ID, "quantity": N}.
func encodeAddProduct(id product.ID, quantity int) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("product_id")
		if raw := []byte(id.String()); id.IsNumeric() && isJSONNumber(raw) {
			e.Raw(raw)
		} else {
			e.Str(id.String())
		}
		e.FieldStart("quantity")
		e.Int(quantity)
	})
	return e.Bytes()
}

// isJSONNumber reports whether raw can be written verbatim as a JSON number.
func isJSONNumber(raw []byte) bool {
	digits := raw
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if len(digits) > 1 && digits[0] == '0' && digits[1] >= '0' && digits[1] <= '9' {
		return false
	}
	return jx.Valid(raw) && jx.DecodeBytes(raw).Next() == jx.Number
}
