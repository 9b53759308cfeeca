package product

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lareyna/reyna-api/internal/application/apptest"
	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

func seedCatalog() []product.Product {
	return []product.Product{
		{Name: "Cielo en Rosa Eau de Parfum", Price: 113, Category: product.CategoryPerfumes},
		{Name: "Labial Mate", Price: 25, Category: product.CategoryMaquillaje},
		{Name: "Bombshell Seduction", Price: 180, Category: product.CategoryPerfumes},
		{Name: "Crema Hidratante", Price: 45.5, Category: product.CategoryCremas},
	}
}

type countingObserver struct{ hits, misses int }

func (o *countingObserver) CacheLookup(hit bool) {
	if hit {
		o.hits++
		return
	}
	o.misses++
}

type ProductUseCaseSuite struct {
	suite.Suite
	repo      *apptest.ProductRepo
	cache     *apptest.ProductCache
	publisher *apptest.Publisher
	images    *apptest.Uploader
	observer  *countingObserver
	list      *ListProductsUseCase
	manage    *ManageProductUseCase
}

func (s *ProductUseCaseSuite) SetupTest() {
	log := logger.NewNopLogger()
	s.repo = apptest.NewProductRepo(seedCatalog()...)
	s.cache = apptest.NewProductCache()
	s.publisher = &apptest.Publisher{}
	s.images = apptest.NewUploader()
	s.observer = &countingObserver{}
	s.list = NewListProductsUseCase(s.repo, s.cache, s.observer, log)
	s.manage = NewManageProductUseCase(s.repo, s.images, s.cache, s.publisher, log)
}

func TestProductUseCases(t *testing.T) {
	suite.Run(t, new(ProductUseCaseSuite))
}

func (s *ProductUseCaseSuite) Test_List_AllWithoutParams() {
	out, err := s.list.Execute(context.Background(), ListProductsInput{})
	s.Require().NoError(err)
	s.Len(out.Products, 4)
}

func (s *ProductUseCaseSuite) Test_List_CategoryAndPagination() {
	out, err := s.list.Execute(context.Background(), ListProductsInput{Category: "perfumes"})
	s.Require().NoError(err)
	s.Len(out.Products, 2)

	out, err = s.list.Execute(context.Background(), ListProductsInput{Page: 2, Limit: 3})
	s.Require().NoError(err)
	s.Require().Len(out.Products, 1)
	s.Equal("Crema Hidratante", out.Products[0].Name)

	_, err = s.list.Execute(context.Background(), ListProductsInput{Category: "Zapatos"})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	_, err = s.list.Execute(context.Background(), ListProductsInput{Page: -1})
	s.ErrorIs(err, apperror.ErrInvalidInput)
}

func (s *ProductUseCaseSuite) Test_List_ServesFromCacheUntilWrite() {
	ctx := context.Background()
	_, err := s.list.Execute(ctx, ListProductsInput{})
	s.Require().NoError(err)
	_, err = s.list.Execute(ctx, ListProductsInput{})
	s.Require().NoError(err)

	s.Equal(1, s.repo.ListCalls)
	s.Equal(1, s.observer.hits)
	s.Equal(1, s.observer.misses)

	_, err = s.manage.Create(ctx, ProductInput{Name: "Anillo de Plata", Price: 89, Category: "Joyas"})
	s.Require().NoError(err)

	out, err := s.list.Execute(ctx, ListProductsInput{})
	s.Require().NoError(err)
	s.Len(out.Products, 5)
	s.Equal(2, s.repo.ListCalls)
}

func (s *ProductUseCaseSuite) Test_List_WriteDuringQueryIsNotCached() {
	ctx := context.Background()
	s.repo.OnList = func() {
		s.repo.OnList = nil
		_, err := s.manage.Create(ctx, ProductInput{Name: "Anillo de Plata", Price: 89, Category: "Joyas"})
		s.Require().NoError(err)
	}

	out, err := s.list.Execute(ctx, ListProductsInput{})
	s.Require().NoError(err)
	s.Len(out.Products, 4)

	out, err = s.list.Execute(ctx, ListProductsInput{})
	s.Require().NoError(err)
	s.Len(out.Products, 5)
	s.Equal(2, s.repo.ListCalls)
}

func (s *ProductUseCaseSuite) Test_List_CacheDownFallsBackToDatabase() {
	s.cache.Err = errors.New("redis: connection refused")

	out, err := s.list.Execute(context.Background(), ListProductsInput{})
	s.Require().NoError(err)
	s.Len(out.Products, 4)
}

func (s *ProductUseCaseSuite) Test_List_EmptyIsNotNil() {
	repo := apptest.NewProductRepo()
	out, err := NewListProductsUseCase(repo, nil, nil, logger.NewNopLogger()).Execute(context.Background(), ListProductsInput{})
	s.Require().NoError(err)
	s.NotNil(out.Products)
	s.Empty(out.Products)
}

func (s *ProductUseCaseSuite) Test_Create_ValidatesAndPublishes() {
	ctx := context.Background()
	_, err := s.manage.Create(ctx, ProductInput{Name: "", Price: 10, Category: "Joyas"})
	s.ErrorIs(err, apperror.ErrInvalidInput)
	_, err = s.manage.Create(ctx, ProductInput{Name: "Collar", Price: 0, Category: "Joyas"})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	p, err := s.manage.Create(ctx, ProductInput{Name: "Collar", Price: 70, Category: "joyas"})
	s.Require().NoError(err)
	s.NotZero(p.ID)
	s.Equal(product.CategoryJoyas, p.Category)
	s.Equal([]string{service.ProductEventCreated}, s.publisher.ProductEventTypes())
	s.Equal(1, s.cache.Invalidations)
}

func (s *ProductUseCaseSuite) Test_UpdateAndDelete() {
	ctx := context.Background()

	p, err := s.manage.Update(ctx, 1, ProductInput{Name: "Cielo en Rosa 100ml", Price: 120, Category: "Perfumes"})
	s.Require().NoError(err)
	s.Equal(120.0, p.Price)

	_, err = s.manage.Update(ctx, 999, ProductInput{Name: "x", Price: 1, Category: "Perfumes"})
	s.ErrorIs(err, apperror.ErrNotFound)

	s.Require().NoError(s.manage.Delete(ctx, 1))
	s.ErrorIs(s.manage.Delete(ctx, 1), apperror.ErrNotFound)

	s.Equal([]string{service.ProductEventUpdated, service.ProductEventDeleted}, s.publisher.ProductEventTypes())
	s.Empty(s.images.Deleted)
}

func (s *ProductUseCaseSuite) Test_Delete_RemovesStoredImage() {
	ctx := context.Background()
	upload := NewUploadProductImageUseCase(s.repo, s.images, s.cache, s.publisher, logger.NewNopLogger())
	_, err := upload.Execute(ctx, UploadProductImageInput{ProductID: 2, File: strings.NewReader("png")})
	s.Require().NoError(err)

	s.Require().NoError(s.manage.Delete(ctx, 2))
	s.Equal([]string{"products/2/original"}, s.images.Deleted)
	s.NotContains(s.images.Files, "products/2/original")
}

func TestImagePipeline(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNopLogger()
	repo := apptest.NewProductRepo(seedCatalog()...)
	uploader := apptest.NewUploader()
	cache := apptest.NewProductCache()
	publisher := &apptest.Publisher{}

	upload := NewUploadProductImageUseCase(repo, uploader, cache, publisher, log)
	p, err := upload.Execute(ctx, UploadProductImageInput{ProductID: 2, File: bytes.NewReader([]byte("png-bytes"))})
	require.NoError(t, err)
	require.NotNil(t, p.ImageURL)
	assert.Equal(t, "https://files.test/products/2/original", *p.ImageURL)
	assert.Nil(t, p.ThumbnailURL)
	assert.Equal(t, []byte("png-bytes"), uploader.Files["products/2/original"])

	require.Len(t, publisher.ProductEvents, 1)
	event := publisher.ProductEvents[0]
	assert.Equal(t, service.ProductEventImageUploaded, event.Type)

	process := NewProcessProductEventUseCase(repo, uploader, cache, log)
	require.NoError(t, process.Execute(ctx, event))

	stored, err := repo.FindByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, stored.ThumbnailURL)
	assert.True(t, strings.Contains(*stored.ThumbnailURL, "products/2/original"))

	// Unrelated events and vanished products are no-ops.
	assert.NoError(t, process.Execute(ctx, service.ProductEvent{Type: service.ProductEventCreated, ProductID: 2}))
	assert.NoError(t, process.Execute(ctx, service.ProductEvent{Type: service.ProductEventImageUploaded, ProductID: 404, ImagePublicID: "x"}))
}

func TestUploadImage_Errors(t *testing.T) {
	ctx := context.Background()
	repo := apptest.NewProductRepo(seedCatalog()...)
	uploader := apptest.NewUploader()
	upload := NewUploadProductImageUseCase(repo, uploader, nil, &apptest.Publisher{}, logger.NewNopLogger())

	_, err := upload.Execute(ctx, UploadProductImageInput{ProductID: 1})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = upload.Execute(ctx, UploadProductImageInput{ProductID: 77, File: strings.NewReader("x")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	uploader.Err = errors.New("cloudinary 500")
	_, err = upload.Execute(ctx, UploadProductImageInput{ProductID: 1, File: strings.NewReader("x")})
	assert.ErrorIs(t, err, apperror.ErrInternal)
}

func TestProductFeed(t *testing.T) {
	repo := apptest.NewProductRepo(seedCatalog()...)
	feed, err := NewProductFeedUseCase(repo, "https://lareyna.pe/", logger.NewNopLogger()).Execute(context.Background())
	require.NoError(t, err)

	require.Len(t, feed.Items, 4)
	assert.Equal(t, "Crema Hidratante", feed.Items[0].Title)
	assert.Equal(t, "https://lareyna.pe/producto/4", feed.Items[0].Link.Href)

	rss, err := feed.ToRss()
	require.NoError(t, err)
	assert.Contains(t, rss, "<title>La Reyna - Novedades</title>")
}
