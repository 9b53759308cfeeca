package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

const (
	StatusActive   = "activo"
	StatusInactive = "inactivo"
)

const MinPasswordLength = 6

type User struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Status       string    `json:"status"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	ErrFullNameRequired = errors.New("full name is required")
	ErrFullNameHasAt    = errors.New("full name must not contain @")
	ErrInvalidEmail     = errors.New("email is not valid")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrInvalidRole      = errors.New("role must be USER or ADMIN")
	ErrUserNotFound     = errors.New("user not found")
)

// Normalize trims user supplied text and lowercases the email so uniqueness
// checks are case insensitive.
func (u *User) Normalize() {
	u.FullName = strings.TrimSpace(u.FullName)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Phone = strings.TrimSpace(u.Phone)
	u.Address = strings.TrimSpace(u.Address)
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
}

func (u *User) Validate() error {
	if u.FullName == "" {
		return ErrFullNameRequired
	}
	// Login treats identifiers containing @ as emails.
	if strings.Contains(u.FullName, "@") {
		return ErrFullNameHasAt
	}
	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email {
		return ErrInvalidEmail
	}
	switch u.Role {
	case RoleUser, RoleAdmin:
	default:
		return ErrInvalidRole
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Repository interface {
	Save(ctx context.Context, u *User) error
	// Upsert creates the user or, when the email exists, resets its password
	// hash and role.
	Upsert(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByLogin matches either the email or the full name, preferring the
	// email match.
	FindByLogin(ctx context.Context, identifier string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
}
