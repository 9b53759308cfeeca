package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/auth"
	"github.com/lareyna/reyna-api/pkg/logger"
)

// SeedAdminUseCase creates the first administrator, or resets the password
// of an existing account with the same email and promotes it.
type SeedAdminUseCase struct {
	userRepo user.Repository
	logger   logger.Logger
}

func NewSeedAdminUseCase(repo user.Repository, log logger.Logger) *SeedAdminUseCase {
	return &SeedAdminUseCase{userRepo: repo, logger: log}
}

type SeedAdminInput struct {
	FullName string
	Email    string
	Password string
}

func (uc *SeedAdminUseCase) Execute(ctx context.Context, input SeedAdminInput) (*user.User, error) {
	if err := user.ValidatePassword(input.Password); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:        uuid.New(),
		FullName:  input.FullName,
		Email:     input.Email,
		Role:      user.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInvalidInput("password cannot be hashed", err)
	}
	u.PasswordHash = hash

	if err := uc.userRepo.Upsert(ctx, u); err != nil {
		return nil, err
	}
	uc.logger.Info("Admin account seeded", zap.String("email", u.Email))
	return u, nil
}
