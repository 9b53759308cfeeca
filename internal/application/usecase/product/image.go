package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

func imageFolder(productID int64) string {
	return fmt.Sprintf("products/%d", productID)
}

const imageName = "original"

type UploadProductImageUseCase struct {
	productRepo product.Repository
	uploader    service.Uploader
	cache       service.ProductCache
	publisher   service.EventPublisher
	logger      logger.Logger
}

func NewUploadProductImageUseCase(pRepo product.Repository, uploader service.Uploader, cache service.ProductCache, publisher service.EventPublisher, log logger.Logger) *UploadProductImageUseCase {
	return &UploadProductImageUseCase{
		productRepo: pRepo,
		uploader:    uploader,
		cache:       cache,
		publisher:   publisher,
		logger:      log,
	}
}

type UploadProductImageInput struct {
	ProductID int64
	File      io.Reader
}

// Execute stores the original image and leaves the thumbnail to the worker.
func (uc *UploadProductImageUseCase) Execute(ctx context.Context, input UploadProductImageInput) (*product.Product, error) {
	ctx, span := tracer.Start(ctx, "UploadProductImage")
	defer span.End()

	if input.File == nil {
		return nil, apperror.NewInvalidInput("image file is required", nil)
	}

	p, err := uc.productRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	folder := imageFolder(p.ID)
	url, err := uc.uploader.Upload(ctx, input.File, folder, imageName)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewInternal("failed to upload product image", err)
	}

	p.AttachImage(url)
	p.UpdatedAt = time.Now().UTC()
	if err := uc.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	invalidateListings(ctx, uc.cache, uc.logger)

	err = uc.publisher.PublishProductEvent(ctx, service.ProductEvent{
		Type:          service.ProductEventImageUploaded,
		ProductID:     p.ID,
		ImagePublicID: folder + "/" + imageName,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		uc.logger.Warn("Failed to publish image uploaded event", zap.Int64("product_id", p.ID), zap.Error(err))
	}
	return p, nil
}

// ProcessProductEventUseCase runs in the worker and reacts to product.events.
type ProcessProductEventUseCase struct {
	productRepo product.Repository
	variants    service.ImageVariants
	cache       service.ProductCache
	logger      logger.Logger
}

func NewProcessProductEventUseCase(pRepo product.Repository, variants service.ImageVariants, cache service.ProductCache, log logger.Logger) *ProcessProductEventUseCase {
	return &ProcessProductEventUseCase{productRepo: pRepo, variants: variants, cache: cache, logger: log}
}

func (uc *ProcessProductEventUseCase) Execute(ctx context.Context, e service.ProductEvent) error {
	if e.Type != service.ProductEventImageUploaded {
		uc.logger.Debug("Ignoring product event", zap.String("type", e.Type), zap.Int64("product_id", e.ProductID))
		return nil
	}

	p, err := uc.productRepo.FindByID(ctx, e.ProductID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			uc.logger.Warn("Product gone before its thumbnail was built, skipping", zap.Int64("product_id", e.ProductID))
			return nil
		}
		return fmt.Errorf("get product failed: %w", err)
	}

	thumb, err := uc.variants.ThumbnailURL(e.ImagePublicID)
	if err != nil {
		return fmt.Errorf("build thumbnail URL failed: %w", err)
	}

	p.MarkThumbnailReady(thumb)
	p.UpdatedAt = time.Now().UTC()
	if err := uc.productRepo.Update(ctx, p); err != nil {
		return fmt.Errorf("update product %d with thumbnail failed: %w", p.ID, err)
	}
	invalidateListings(ctx, uc.cache, uc.logger)

	uc.logger.Info("Product thumbnail ready", zap.Int64("product_id", p.ID))
	return nil
}
