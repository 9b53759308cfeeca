package product

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
)

type Category string

const (
	CategoryPerfumes   Category = "Perfumes"
	CategoryMaquillaje Category = "Maquillaje"
	CategoryCremas     Category = "Cremas"
	CategoryJoyas      Category = "Joyas"
)

var Categories = []Category{CategoryPerfumes, CategoryMaquillaje, CategoryCremas, CategoryJoyas}

type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Category     Category  `json:"category"`
	ImageURL     *string   `json:"image_url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Prices are stored as NUMERIC(10,2).
const (
	MinPrice = 0.01
	MaxPrice = 99999999.99
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrInvalidPrice    = errors.New("price must be between 0.01 and 99999999.99")
	ErrInvalidCategory = errors.New("category must be one of Perfumes, Maquillaje, Cremas, Joyas")
	ErrProductNotFound = errors.New("product not found")
)

// ParseCategory is case insensitive and returns the canonical spelling.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrNameRequired
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return ErrInvalidPrice
	}
	p.Price = math.Round(p.Price*100) / 100
	if p.Price < MinPrice || p.Price > MaxPrice {
		return ErrInvalidPrice
	}
	c, ok := ParseCategory(string(p.Category))
	if !ok {
		return ErrInvalidCategory
	}
	p.Category = c
	return nil
}

// AttachImage records a freshly uploaded original. Any previous thumbnail is
// stale until the worker builds a new one.
func (p *Product) AttachImage(originalURL string) {
	p.ImageURL = &originalURL
	p.ThumbnailURL = nil
}

func (p *Product) MarkThumbnailReady(thumbnailURL string) {
	p.ThumbnailURL = &thumbnailURL
}

// Filter narrows a listing. A zero Limit means no limit.
type Filter struct {
	Category Category
	Limit    int
	Offset   int
}

type Repository interface {
	Save(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, f Filter) ([]*Product, error)
	ListNewest(ctx context.Context, limit int) ([]*Product, error)
}
