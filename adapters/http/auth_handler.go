package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authUC "github.com/lareyna/reyna-api/internal/application/usecase/auth"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

const (
	msgUserCreated        = "Usuario creado con éxito"
	msgUserLoggedIn       = "Usuario logeado con éxito"
	msgInvalidCredentials = "invalid credentials"
)

type AuthHandler struct {
	registerUseCase    *authUC.RegisterUseCase
	loginUseCase       *authUC.LoginUseCase
	currentUserUseCase *authUC.GetCurrentUserUseCase
	logger             logger.Logger
}

func NewAuthHandler(registerUC *authUC.RegisterUseCase, loginUC *authUC.LoginUseCase, currentUC *authUC.GetCurrentUserUseCase, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		registerUseCase:    registerUC,
		loginUseCase:       loginUC,
		currentUserUseCase: currentUC,
		logger:             log,
	}
}

func (h *AuthHandler) register(c *gin.Context) (*authUC.AuthOutput, bool) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput(err.Error(), err))
		return nil, false
	}

	output, err := h.registerUseCase.Execute(c.Request.Context(), authUC.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
		Status:   req.Status,
	})
	if err != nil {
		c.Error(err)
		return nil, false
	}
	return output, true
}

func (h *AuthHandler) Register(c *gin.Context) {
	output, ok := h.register(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: output.AccessToken})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput(err.Error(), err))
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), authUC.LoginInput{
		Identifier: req.FullName,
		Password:   req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: output.AccessToken})
}

// CreateUser is the older registration endpoint answering an Envelope.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	output, ok := h.register(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Envelope{Message: msgUserCreated, Data: ToUserDTO(output.User)})
}

// LoginUser is the older email login reading correo and password from the
// form body or the query string.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	email := formOrQuery(c, "correo")
	password := formOrQuery(c, "password")
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, Envelope{Message: "correo and password are required"})
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), authUC.LoginInput{
		Identifier: email,
		Password:   password,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, Envelope{Message: msgInvalidCredentials})
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, Envelope{
		Message: msgUserLoggedIn,
		Data: gin.H{
			"user":  ToUserDTO(output.User),
			"token": output.AccessToken,
		},
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("principal not found", nil))
		return
	}

	u, err := h.currentUserUseCase.Execute(c.Request.Context(), principal.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToUserDTO(u))
}

func (h *AuthHandler) HealthAuth(c *gin.Context) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewInternal("cannot get principal from context", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "OK",
		"message":  "Authentication middleware is working!",
		"user_id":  principal.UserID,
		"username": principal.Username,
		"role":     principal.Role,
	})
}

func formOrQuery(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}
