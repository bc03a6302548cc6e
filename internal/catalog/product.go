// Package catalog loads product records from the headless content store and
// turns them into grid cards and detail links.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductQuery asks the content store for every product with the fields the
// storefront renders.
const ProductQuery = `*[_type == 'product']{
  _id,
  title,
  price,
  description,
  discountPercentage,
  isNew,
  "imageUrl": productImage.asset->url,
  tags
}`

// Product is a read-only copy of a content store record.
type Product struct {
	ID                 string   `json:"_id"`
	Title              string   `json:"title"`
	Price              *Price   `json:"price,omitempty"`
	Description        string   `json:"description"`
	DiscountPercentage *float64 `json:"discountPercentage,omitempty"`
	IsNew              bool     `json:"isNew,omitempty"`
	ImageURL           string   `json:"imageUrl,omitempty"`
	Tags               []string `json:"tags,omitempty"`
}

// Price is a decimal amount encoded as a bare JSON number, matching what
// the content store sends and what older stored carts contain.
type Price struct {
	decimal.Decimal
}

func NewPrice(d decimal.Decimal) Price { return Price{Decimal: d} }

func MustPrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	if d.IsNegative() {
		return Price{}, fmt.Errorf("parse price %q: negative", s)
	}
	return Price{Decimal: d}, nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	return p.Decimal.UnmarshalJSON(b)
}

// Label formats the price the way the grid shows it: "$29.99".
func (p Price) Label() string {
	return "$" + p.StringFixed(2)
}
