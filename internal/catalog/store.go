package catalog

import (
	"context"
	"errors"
)

var (
	ErrContentUnavailable = errors.New("content store unavailable")
	ErrContentBadStatus   = errors.New("content store bad status")
)

// ContentStore runs the product query against wherever products live.
type ContentStore interface {
	Query(ctx context.Context) ([]Product, error)
	Ping(ctx context.Context) error
}
