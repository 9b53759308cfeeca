package service

import (
	"context"

	"github.com/lareyna/reyna-api/internal/domain/product"
)

// ProductCache holds product listings keyed by filter under a generation.
// Invalidate starts a new generation, so a listing read before a write and
// stored afterwards lands in the old generation and is never served.
type ProductCache interface {
	Generation(ctx context.Context) (int64, error)
	GetList(ctx context.Context, gen int64, key string) ([]*product.Product, bool, error)
	SetList(ctx context.Context, gen int64, key string, products []*product.Product) error
	Invalidate(ctx context.Context) error
}

type CacheObserver interface {
	CacheLookup(hit bool)
}
