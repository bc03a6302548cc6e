package catalog

import (
	"strconv"
)

const FallbackImage = "/fallback.png"

// Card is one tile of the product grid.
type Card struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PriceLabel    string `json:"priceLabel"`
	Image         string `json:"image"`
	IsNew         bool   `json:"isNew"`
	DiscountLabel string `json:"discountLabel,omitempty"`
	DetailURL     string `json:"detailUrl"`
}

func NewCard(p Product) Card {
	return Card{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		PriceLabel:    PriceLabel(p.Price),
		Image:         ImageOrFallback(p.ImageURL),
		IsNew:         p.IsNew,
		DiscountLabel: DiscountLabel(p.DiscountPercentage),
		DetailURL:     DetailURL(p),
	}
}

func Cards(products []Product) []Card {
	out := make([]Card, 0, len(products))
	for _, p := range products {
		out = append(out, NewCard(p))
	}
	return out
}

// PriceLabel renders a missing price as a bare "$"; records are shown as the
// content store sent them.
func PriceLabel(p *Price) string {
	if p == nil {
		return "$"
	}
	return p.Label()
}

func DiscountLabel(pct *float64) string {
	if pct == nil || *pct == 0 {
		return ""
	}
	return "-" + strconv.FormatFloat(*pct, 'f', -1, 64) + "%"
}

func ImageOrFallback(u string) string {
	if u == "" {
		return FallbackImage
	}
	return u
}
