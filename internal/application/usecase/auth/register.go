package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/auth"
	"github.com/lareyna/reyna-api/pkg/logger"
)

type RegisterUseCase struct {
	userRepo  user.Repository
	jwtSvc    *auth.JWTService
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewRegisterUseCase(repo user.Repository, jwtSvc *auth.JWTService, publisher service.EventPublisher, log logger.Logger) *RegisterUseCase {
	return &RegisterUseCase{
		userRepo:  repo,
		jwtSvc:    jwtSvc,
		publisher: publisher,
		logger:    log,
	}
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Address  string
	Status   string
}

// Execute creates a USER account. The role is never taken from the request.
func (uc *RegisterUseCase) Execute(ctx context.Context, input RegisterInput) (*AuthOutput, error) {
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	if err := user.ValidatePassword(input.Password); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:        uuid.New(),
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		Status:    input.Status,
		Role:      user.RoleUser,
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

	if err := uc.userRepo.Save(ctx, u); err != nil {
		span.RecordError(err)
		return nil, err
	}

	token, err := issueToken(uc.jwtSvc, u)
	if err != nil {
		uc.logger.Error("Failed to generate token for new user", err, zap.String("user_id", u.ID.String()))
		return nil, err
	}

	if err := uc.publisher.PublishUserEvent(ctx, service.UserEvent{
		Type:       service.UserEventRegistered,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: now,
	}); err != nil {
		uc.logger.Warn("Failed to publish user registered event", zap.String("user_id", u.ID.String()), zap.Error(err))
	}

	span.SetAttributes(attribute.String("user_id", u.ID.String()))
	uc.logger.Info("User registered", zap.String("user_id", u.ID.String()))
	return &AuthOutput{AccessToken: token, User: u}, nil
}
