package product

import (
	"context"

	"github.com/lareyna/reyna-api/internal/domain/product"
)

type GetProductUseCase struct {
	productRepo product.Repository
}

func NewGetProductUseCase(pRepo product.Repository) *GetProductUseCase {
	return &GetProductUseCase{productRepo: pRepo}
}

func (uc *GetProductUseCase) Execute(ctx context.Context, id int64) (*product.Product, error) {
	return uc.productRepo.FindByID(ctx, id)
}
