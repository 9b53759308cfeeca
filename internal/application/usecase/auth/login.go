package auth

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/auth"
	"github.com/lareyna/reyna-api/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
)

var tracer = otel.Tracer("auth_usecase")

// unknownUserHash is compared against when the identifier matches nobody, so
// both failure paths cost one bcrypt comparison.
var unknownUserHash = mustHash("reyna-unknown-user")

func mustHash(password string) string {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return hash
}

type LoginUseCase struct {
	userRepo      user.Repository
	jwtSvc        *auth.JWTService
	logger        logger.Logger
	checkPassword func(password, hash string) bool
}

func NewLoginUseCase(repo user.Repository, jwtSvc *auth.JWTService, log logger.Logger) *LoginUseCase {
	return &LoginUseCase{
		userRepo:      repo,
		jwtSvc:        jwtSvc,
		logger:        log,
		checkPassword: auth.CheckPasswordHash,
	}
}

// LoginInput identifies the user by email or full name.
type LoginInput struct {
	Identifier string
	Password   string
}

type AuthOutput struct {
	AccessToken string
	User        *user.User
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*AuthOutput, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, apperror.NewInvalidInput("identifier and password are required", nil)
	}
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	u, err := uc.userRepo.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			uc.checkPassword(input.Password, unknownUserHash)
			err = apperror.NewUnauthorized("invalid credentials", ErrInvalidCredentials)
		}
		span.RecordError(err)
		return nil, err
	}

	if !uc.checkPassword(input.Password, u.PasswordHash) {
		err := apperror.NewUnauthorized("invalid credentials", ErrInvalidCredentials)
		span.RecordError(err)
		return nil, err
	}

	if u.Status == user.StatusInactive {
		err := apperror.NewAppError(apperror.ErrPermission, "Account disabled", "user is inactive", ErrAccountDisabled)
		span.RecordError(err)
		return nil, err
	}

	token, err := issueToken(uc.jwtSvc, u)
	if err != nil {
		uc.logger.Error("Failed to generate token", err, zap.String("user_id", u.ID.String()))
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", u.ID.String()))
	return &AuthOutput{AccessToken: token, User: u}, nil
}

func issueToken(jwtSvc *auth.JWTService, u *user.User) (string, error) {
	token, err := jwtSvc.GenerateToken(auth.Principal{
		UserID:   u.ID,
		Username: u.FullName,
		Role:     string(u.Role),
	})
	if err != nil {
		return "", apperror.NewInternal("failed to generate token", err)
	}
	return token, nil
}
