package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/auth"
	"github.com/lareyna/reyna-api/pkg/logger"
)

const (
	GinContextKeyPrincipal = "principal"
	HeaderRequestID        = "X-Request-ID"
)

// AuthMiddleware requires a valid bearer token and stores its principal in
// the gin context.
func AuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Error(apperror.NewUnauthorized("Authorization header is required", nil))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			c.Error(apperror.NewUnauthorized("Invalid token format", nil))
			c.Abort()
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			log.Debug("Rejected token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			c.Error(apperror.NewUnauthorized("Invalid or expired token", err))
			c.Abort()
			return
		}

		c.Set(GinContextKeyPrincipal, claims.Principal())
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipalFromGinContext(c)
		if !ok {
			c.Error(apperror.NewUnauthorized("principal not found", nil))
			c.Abort()
			return
		}
		if principal.Role != role {
			c.Error(apperror.NewPermissionDenied("this operation requires role " + role))
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetPrincipalFromGinContext(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(GinContextKeyPrincipal)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := apperror.ToHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			var appErr *apperror.AppError
			cause := err
			if errors.As(err, &appErr) && appErr.Err != nil {
				cause = appErr.Err
			}
			log.Error("Request failed", cause,
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(HeaderRequestID)),
			)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, apperror.ToJSON(err))
	}
}

// RequestLogger tags every request with an id and logs it once it completes.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(HeaderRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()

		log.Info("HTTP request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
