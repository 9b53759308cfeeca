package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/pkg/logger"
)

const feedSize = 20

type ProductFeedUseCase struct {
	productRepo product.Repository
	siteURL     string
	logger      logger.Logger
}

func NewProductFeedUseCase(pRepo product.Repository, siteURL string, log logger.Logger) *ProductFeedUseCase {
	return &ProductFeedUseCase{
		productRepo: pRepo,
		siteURL:     strings.TrimSuffix(siteURL, "/"),
		logger:      log,
	}
}

// Execute lists the newest products as an RSS-ready feed.
func (uc *ProductFeedUseCase) Execute(ctx context.Context) (*feeds.Feed, error) {
	products, err := uc.productRepo.ListNewest(ctx, feedSize)
	if err != nil {
		uc.logger.Error("Failed to list newest products for feed", err)
		return nil, err
	}

	feed := &feeds.Feed{
		Title:       "La Reyna - Novedades",
		Link:        &feeds.Link{Href: uc.siteURL + "/productos"},
		Description: "Nuevos perfumes, maquillaje, cremas y joyas.",
		Created:     time.Now(),
	}

	for _, p := range products {
		item := &feeds.Item{
			Id:          fmt.Sprintf("%s/producto/%d", uc.siteURL, p.ID),
			Title:       p.Name,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/producto/%d", uc.siteURL, p.ID)},
			Description: fmt.Sprintf("%s - S/ %.2f", p.Category, p.Price),
			Created:     p.CreatedAt,
			Updated:     p.UpdatedAt,
		}
		if p.ThumbnailURL != nil {
			item.Enclosure = &feeds.Enclosure{Url: *p.ThumbnailURL, Type: "image/jpeg", Length: "0"}
		}
		feed.Items = append(feed.Items, item)
	}

	uc.logger.Debug("Product feed generated", zap.Int("item_count", len(feed.Items)))
	return feed, nil
}
