package product

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

var tracer = otel.Tracer("product_usecase")

const MaxPageSize = 100

type ListProductsUseCase struct {
	productRepo product.Repository
	cache       service.ProductCache
	observer    service.CacheObserver
	logger      logger.Logger
}

// NewListProductsUseCase wires the listing. cache and observer may be nil.
func NewListProductsUseCase(pRepo product.Repository, cache service.ProductCache, observer service.CacheObserver, log logger.Logger) *ListProductsUseCase {
	return &ListProductsUseCase{productRepo: pRepo, cache: cache, observer: observer, logger: log}
}

// ListProductsInput with Page and Limit both zero returns every product.
type ListProductsInput struct {
	Category string
	Page     int
	Limit    int
}

type ListProductsOutput struct {
	Products []*product.Product
}

func (in ListProductsInput) filter() (product.Filter, error) {
	var f product.Filter
	if in.Category != "" {
		c, ok := product.ParseCategory(in.Category)
		if !ok {
			return f, apperror.NewInvalidInput(product.ErrInvalidCategory.Error(), product.ErrInvalidCategory)
		}
		f.Category = c
	}
	if in.Page < 0 || in.Limit < 0 {
		return f, apperror.NewInvalidInput("page and limit must not be negative", nil)
	}
	if in.Page > 0 && in.Limit == 0 {
		in.Limit = 20
	}
	if in.Limit > MaxPageSize {
		in.Limit = MaxPageSize
	}
	if in.Limit > 0 {
		if in.Page == 0 {
			in.Page = 1
		}
		f.Limit = in.Limit
		f.Offset = (in.Page - 1) * in.Limit
	}
	return f, nil
}

func cacheKey(f product.Filter) string {
	return fmt.Sprintf("cat=%s:limit=%d:offset=%d", f.Category, f.Limit, f.Offset)
}

func (uc *ListProductsUseCase) Execute(ctx context.Context, input ListProductsInput) (*ListProductsOutput, error) {
	ctx, span := tracer.Start(ctx, "ListProducts")
	defer span.End()

	f, err := input.filter()
	if err != nil {
		return nil, err
	}
	key := cacheKey(f)
	span.SetAttributes(attribute.String("cache_key", key))

	var gen int64
	cacheUsable := uc.cache != nil
	if cacheUsable {
		if gen, err = uc.cache.Generation(ctx); err != nil {
			uc.logger.Warn("Product cache unavailable, falling back to database", zap.Error(err))
			uc.observe(false)
			cacheUsable = false
		}
	}
	if cacheUsable {
		cached, ok, err := uc.cache.GetList(ctx, gen, key)
		if err != nil {
			uc.logger.Warn("Product cache read failed, falling back to database", zap.Error(err))
		}
		uc.observe(ok && err == nil)
		if ok && err == nil {
			return &ListProductsOutput{Products: cached}, nil
		}
	}

	products, err := uc.productRepo.List(ctx, f)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if products == nil {
		products = []*product.Product{}
	}

	if cacheUsable {
		if err := uc.cache.SetList(ctx, gen, key, products); err != nil {
			uc.logger.Warn("Product cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return &ListProductsOutput{Products: products}, nil
}

func (uc *ListProductsUseCase) observe(hit bool) {
	if uc.observer != nil {
		uc.observer.CacheLookup(hit)
	}
}
