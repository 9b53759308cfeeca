package product

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		in   Product
		want error
	}{
		{"ok", Product{Name: "Cielo en Rosa", Price: 113, Category: "perfumes"}, nil},
		{"blank name", Product{Name: "   ", Price: 10, Category: CategoryJoyas}, ErrNameRequired},
		{"zero price", Product{Name: "Anillo", Price: 0, Category: CategoryJoyas}, ErrInvalidPrice},
		{"negative price", Product{Name: "Anillo", Price: -3, Category: CategoryJoyas}, ErrInvalidPrice},
		{"rounds to zero", Product{Name: "Anillo", Price: 0.004, Category: CategoryJoyas}, ErrInvalidPrice},
		{"overflows column", Product{Name: "Anillo", Price: 1e8, Category: CategoryJoyas}, ErrInvalidPrice},
		{"smallest price", Product{Name: "Anillo", Price: 0.01, Category: CategoryJoyas}, nil},
		{"largest price", Product{Name: "Anillo", Price: 99999999.99, Category: CategoryJoyas}, nil},
		{"nan price", Product{Name: "Anillo", Price: math.NaN(), Category: CategoryJoyas}, ErrInvalidPrice},
		{"missing category", Product{Name: "Anillo", Price: 3}, ErrInvalidCategory},
		{"unknown category", Product{Name: "Anillo", Price: 3, Category: "Zapatos"}, ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.in
			assert.ErrorIs(t, p.Validate(), tc.want)
		})
	}
}

func TestValidate_CanonicalizesCategory(t *testing.T) {
	p := Product{Name: " Labial ", Price: 20, Category: "MAQUILLAJE"}
	assert.NoError(t, p.Validate())
	assert.Equal(t, CategoryMaquillaje, p.Category)
	assert.Equal(t, "Labial", p.Name)
}

func TestValidate_RoundsPriceToCents(t *testing.T) {
	p := Product{Name: "Labial", Price: 19.999, Category: CategoryMaquillaje}
	assert.NoError(t, p.Validate())
	assert.Equal(t, 20.0, p.Price)
}

func TestAttachImage_ResetsThumbnail(t *testing.T) {
	p := Product{}
	p.MarkThumbnailReady("thumb-old")
	p.AttachImage("original-new")

	assert.Equal(t, "original-new", *p.ImageURL)
	assert.Nil(t, p.ThumbnailURL)
}
