package export

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	domain "github.com/lareyna/reyna-api/internal/domain/export"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

var tracer = otel.Tracer("export_usecase")

// usersPerPage bounds each read while exporting every user.
const usersPerPage = 500

// File is a rendered workbook ready to be sent or stored.
type File struct {
	Name string
	Data []byte
	Rows int
}

// BuildWorkbookUseCase renders product and user listings as .xlsx files.
// The HTTP handlers call it synchronously; the worker and the CLI reuse it.
type BuildWorkbookUseCase struct {
	productRepo product.Repository
	userRepo    user.Repository
	logger      logger.Logger
}

func NewBuildWorkbookUseCase(pRepo product.Repository, uRepo user.Repository, log logger.Logger) *BuildWorkbookUseCase {
	return &BuildWorkbookUseCase{productRepo: pRepo, userRepo: uRepo, logger: log}
}

func (uc *BuildWorkbookUseCase) Execute(ctx context.Context, kind domain.Kind) (*File, error) {
	switch kind {
	case domain.KindProducts:
		return uc.Products(ctx)
	case domain.KindUsers:
		return uc.Users(ctx)
	}
	return nil, apperror.NewInvalidInput(domain.ErrInvalidKind.Error(), domain.ErrInvalidKind)
}

func (uc *BuildWorkbookUseCase) Products(ctx context.Context) (*File, error) {
	ctx, span := tracer.Start(ctx, "ExportProducts")
	defer span.End()

	products, err := uc.productRepo.List(ctx, product.Filter{})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	data, err := ProductsWorkbook(products)
	if err != nil {
		return nil, apperror.NewInternal("failed to render products workbook", err)
	}
	uc.logger.Info("Products workbook built", zap.Int("rows", len(products)))
	return &File{Name: ProductsFileName, Data: data, Rows: len(products)}, nil
}

func (uc *BuildWorkbookUseCase) Users(ctx context.Context) (*File, error) {
	ctx, span := tracer.Start(ctx, "ExportUsers")
	defer span.End()

	var users []*user.User
	for offset := 0; ; offset += usersPerPage {
		batch, err := uc.userRepo.List(ctx, usersPerPage, offset)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("list users at offset %d: %w", offset, err)
		}
		users = append(users, batch...)
		if len(batch) < usersPerPage {
			break
		}
	}

	data, err := UsersWorkbook(users)
	if err != nil {
		return nil, apperror.NewInternal("failed to render users workbook", err)
	}
	uc.logger.Info("Users workbook built", zap.Int("rows", len(users)))
	return &File{Name: UsersFileName, Data: data, Rows: len(users)}, nil
}
