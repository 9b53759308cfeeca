package user

import (
	"context"

	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

type ListUsersUseCase struct {
	userRepo user.Repository
	logger   logger.Logger
}

func NewListUsersUseCase(repo user.Repository, log logger.Logger) *ListUsersUseCase {
	return &ListUsersUseCase{userRepo: repo, logger: log}
}

type ListUsersInput struct {
	Page  int
	Limit int
}

func (uc *ListUsersUseCase) Execute(ctx context.Context, input ListUsersInput) ([]*user.User, error) {
	if input.Page < 0 || input.Limit < 0 {
		return nil, apperror.NewInvalidInput("page and limit must not be negative", nil)
	}
	if input.Limit == 0 {
		input.Limit = 50
	}
	if input.Limit > 200 {
		input.Limit = 200
	}
	if input.Page == 0 {
		input.Page = 1
	}

	users, err := uc.userRepo.List(ctx, input.Limit, (input.Page-1)*input.Limit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*user.User{}
	}
	return users, nil
}
