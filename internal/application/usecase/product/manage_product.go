package product

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

// ManageProductUseCase holds the admin write operations. Every successful
// write drops cached listings and announces itself on product.events.
type ManageProductUseCase struct {
	productRepo product.Repository
	images      service.Uploader
	cache       service.ProductCache
	publisher   service.EventPublisher
	logger      logger.Logger
}

func NewManageProductUseCase(pRepo product.Repository, images service.Uploader, cache service.ProductCache, publisher service.EventPublisher, log logger.Logger) *ManageProductUseCase {
	return &ManageProductUseCase{productRepo: pRepo, images: images, cache: cache, publisher: publisher, logger: log}
}

type ProductInput struct {
	Name     string
	Price    float64
	Category string
}

func (uc *ManageProductUseCase) Create(ctx context.Context, input ProductInput) (*product.Product, error) {
	ctx, span := tracer.Start(ctx, "CreateProduct")
	defer span.End()

	now := time.Now().UTC()
	p := &product.Product{
		Name:      input.Name,
		Price:     input.Price,
		Category:  product.Category(input.Category),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	if err := uc.productRepo.Save(ctx, p); err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.afterWrite(ctx, service.ProductEventCreated, p.ID)
	return p, nil
}

func (uc *ManageProductUseCase) Update(ctx context.Context, id int64, input ProductInput) (*product.Product, error) {
	ctx, span := tracer.Start(ctx, "UpdateProduct")
	defer span.End()

	p, err := uc.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = input.Name
	p.Price = input.Price
	p.Category = product.Category(input.Category)
	p.UpdatedAt = time.Now().UTC()
	if err := p.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	if err := uc.productRepo.Update(ctx, p); err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.afterWrite(ctx, service.ProductEventUpdated, p.ID)
	return p, nil
}

func (uc *ManageProductUseCase) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "DeleteProduct")
	defer span.End()

	p, err := uc.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.productRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	if p.ImageURL != nil && uc.images != nil {
		publicID := imageFolder(id) + "/" + imageName
		if err := uc.images.Delete(ctx, publicID); err != nil {
			uc.logger.Warn("Failed to delete product image", zap.Int64("product_id", id), zap.String("public_id", publicID), zap.Error(err))
		}
	}

	uc.afterWrite(ctx, service.ProductEventDeleted, id)
	return nil
}

func (uc *ManageProductUseCase) afterWrite(ctx context.Context, eventType string, id int64) {
	invalidateListings(ctx, uc.cache, uc.logger)

	err := uc.publisher.PublishProductEvent(ctx, service.ProductEvent{
		Type:       eventType,
		ProductID:  id,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		uc.logger.Warn("Failed to publish product event", zap.String("type", eventType), zap.Int64("product_id", id), zap.Error(err))
	}
}

func invalidateListings(ctx context.Context, cache service.ProductCache, log logger.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		log.Warn("Failed to invalidate product cache", zap.Error(err))
	}
}
