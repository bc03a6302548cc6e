package cart

import (
	"encoding/json"

	"Storefront/internal/catalog"
)

// Item is what the detail view submits: the product as it was displayed.
type Item struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Price catalog.Price `json:"price"`
	Image string        `json:"image"`
}

// Line is one persisted cart entry. Price is the snapshot taken when the
// line was first added.
type Line struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Price    catalog.Price `json:"price"`
	Image    string        `json:"image"`
	Quantity int           `json:"quantity"`
}

// Cart holds at most one Line per product id.
type Cart []Line

// WishlistEntry keeps the legacy field names (productName, productImage,
// productPrice) so previously stored wishlists decode unchanged.
type WishlistEntry struct {
	ID           string        `json:"id"`
	ProductName  string        `json:"productName"`
	ProductImage string        `json:"productImage"`
	ProductPrice catalog.Price `json:"productPrice"`
}

type Wishlist []WishlistEntry

func (c Cart) TotalQuantity() int {
	n := 0
	for _, l := range c {
		n += l.Quantity
	}
	return n
}

// add merges qty units of it into c.
func (c Cart) add(it Item, qty int) Cart {
	for i := range c {
		if c[i].ID == it.ID {
			c[i].Quantity += qty
			return c
		}
	}
	return append(c, Line{
		ID:       it.ID,
		Name:     it.Name,
		Price:    it.Price,
		Image:    it.Image,
		Quantity: qty,
	})
}

func (w Wishlist) add(it Item) Wishlist {
	return append(w, WishlistEntry{
		ID:           it.ID,
		ProductName:  it.Name,
		ProductImage: it.Image,
		ProductPrice: it.Price,
	})
}

// decode unmarshals a stored collection. Absent or unparseable data yields
// an empty collection; ok is false only for unparseable data.
func decode[T any](raw []byte, found bool) (out []T, ok bool) {
	if !found || len(raw) == 0 {
		return nil, true
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}
