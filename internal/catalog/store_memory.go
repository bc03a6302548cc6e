package catalog

import (
	"context"
	"sync"
)

type MemContentStore struct {
	mu       sync.RWMutex
	products []Product
}

func NewMemContentStore(products ...Product) *MemContentStore {
	s := &MemContentStore{}
	s.Replace(products)
	return s
}

// SeedProducts is the catalogue served when no content store is configured.
func SeedProducts() []Product {
	lamp, chair, rug := MustPrice("29.99"), MustPrice("149.00"), MustPrice("89.50")
	discount := 20.0

	return []Product{
		{ID: "p1", Title: "Lamp", Price: &lamp, Description: "Brass desk lamp with linen shade.", IsNew: true, Tags: []string{"lighting", "desk"}},
		{ID: "p2", Title: "Lounge Chair", Price: &chair, Description: "Oak frame, wool upholstery.", DiscountPercentage: &discount, Tags: []string{"seating"}},
		{ID: "p3", Title: "Jute Rug", Price: &rug, Description: "Hand-woven, 160x230cm."},
	}
}

func (s *MemContentStore) Replace(products []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]Product(nil), products...)
}

func (s *MemContentStore) Ping(context.Context) error { return nil }

func (s *MemContentStore) Query(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}
