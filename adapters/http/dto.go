package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/lareyna/reyna-api/internal/domain/export"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/internal/domain/user"
)

// Auth DTOs. Field names follow the storefront's existing forms.

type RegisterRequest struct {
	FullName string `json:"nombre_completo" binding:"required"`
	Email    string `json:"correo" binding:"required"`
	Password string `json:"contraseña" binding:"required"`
	Phone    string `json:"telefono"`
	Address  string `json:"direccion"`
	Status   string `json:"estado"`
}

type LoginRequest struct {
	// FullName accepts either the full name or the email.
	FullName string `json:"nombre_completo" binding:"required"`
	Password string `json:"contraseña" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

// Envelope is the response shape of the /auth/user endpoints.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func ToUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Status:    u.Status,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func ToUserDTOs(users []*user.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

// Product DTOs

type ProductRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

type ProductDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	ImageURL     *string `json:"image_url,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
}

func ToProductDTO(p *product.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Category:     string(p.Category),
		ImageURL:     p.ImageURL,
		ThumbnailURL: p.ThumbnailURL,
	}
}

func ToProductDTOs(products []*product.Product) []ProductDTO {
	out := make([]ProductDTO, len(products))
	for i, p := range products {
		out[i] = ToProductDTO(p)
	}
	return out
}

// Export DTOs

type ExportRequest struct {
	Kind string `json:"kind" binding:"required"`
}

type ExportJobDTO struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	FileURL   *string   `json:"file_url,omitempty"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToExportJobDTO(j *export.Job) ExportJobDTO {
	return ExportJobDTO{
		ID:        j.ID,
		Kind:      string(j.Kind),
		Status:    string(j.Status),
		FileURL:   j.FileURL,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
