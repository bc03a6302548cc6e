package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DetailPath is where grid links point. The product itself travels in the
// query string, so the detail view needs no second content store round-trip.
const DetailPath = "/shop/product"

var ErrMissingID = errors.New("product id is required")

// Detail is the product as the detail view sees it.
type Detail struct {
	ID                 string
	Name               string
	Price              *Price
	Image              string
	Description        string
	DiscountPercentage *float64
	IsNew              bool
	Tags               []string
}

func (d Detail) PriceLabel() string    { return PriceLabel(d.Price) }
func (d Detail) DiscountLabel() string { return DiscountLabel(d.DiscountPercentage) }

// DetailURL encodes p as a detail-page link.
func DetailURL(p Product) string {
	q := url.Values{}
	q.Set("id", p.ID)
	q.Set("name", p.Title)
	if p.Price != nil {
		q.Set("price", p.Price.String())
	}
	q.Set("image", ImageOrFallback(p.ImageURL))
	q.Set("description", p.Description)
	if p.DiscountPercentage != nil {
		q.Set("discountPercentage", strconv.FormatFloat(*p.DiscountPercentage, 'f', -1, 64))
	}
	if p.IsNew {
		q.Set("isNew", "true")
	}
	if len(p.Tags) > 0 {
		q.Set("tags", strings.Join(p.Tags, ","))
	}
	return DetailPath + "?" + q.Encode()
}

// ParseDetail rebuilds the detail-view product from a DetailURL query.
func ParseDetail(q url.Values) (Detail, error) {
	d := Detail{
		ID:          strings.TrimSpace(q.Get("id")),
		Name:        q.Get("name"),
		Image:       ImageOrFallback(q.Get("image")),
		Description: q.Get("description"),
		Tags:        SplitTags(q.Get("tags")),
	}
	if d.ID == "" {
		return Detail{}, ErrMissingID
	}

	if s := q.Get("price"); s != "" {
		p, err := ParsePrice(s)
		if err != nil {
			return Detail{}, err
		}
		d.Price = &p
	}

	if s := q.Get("discountPercentage"); s != "" && s != "undefined" {
		pct, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Detail{}, fmt.Errorf("parse discountPercentage %q: %w", s, err)
		}
		d.DiscountPercentage = &pct
	}

	d.IsNew, _ = strconv.ParseBool(q.Get("isNew"))
	return d, nil
}

func SplitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
