package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/auth"
	"github.com/lareyna/reyna-api/pkg/logger"
	"github.com/lareyna/reyna-api/pkg/metrics"
)

type RouterDeps struct {
	Logger         logger.Logger
	JWT            *auth.JWTService
	Metrics        *metrics.Metrics // optional
	CORSOrigins    []string
	AuthLimiter    *IPRateLimiter // optional
	AuthHandler    *AuthHandler
	ProductHandler *ProductHandler
	UserHandler    *UserHandler
	ExportHandler  *ExportHandler
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Accept", "Origin", HeaderRequestID},
		ExposeHeaders:    []string{"Content-Disposition", HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// NewRouter wires every route. /auth/** and GET /api/productos/** are public;
// everything else under /api needs a bearer token.
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(d.Logger))
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	router.Use(corsMiddleware(d.CORSOrigins), ErrorMiddleware(d.Logger))

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

	authGroup := router.Group("/auth")
	if d.AuthLimiter != nil {
		authGroup.Use(d.AuthLimiter.Middleware())
	}
	{
		authGroup.POST("/register", d.AuthHandler.Register)
		authGroup.POST("/login", d.AuthHandler.Login)
		authGroup.POST("/user/create", d.AuthHandler.CreateUser)
		authGroup.POST("/user/login", d.AuthHandler.LoginUser)
	}

	api := router.Group("/api")

	public := api.Group("/productos")
	{
		public.GET("", d.ProductHandler.ListProducts)
		public.GET("/excel", d.ProductHandler.ExportExcel)
		public.GET("/feed.rss", d.ProductHandler.Feed)
		public.GET("/:id", d.ProductHandler.GetProduct)
	}

	private := api.Group("")
	private.Use(AuthMiddleware(d.JWT, d.Logger))
	{
		private.GET("/me", d.AuthHandler.Me)
		private.GET("/health-auth", d.AuthHandler.HealthAuth)

		admin := private.Group("")
		admin.Use(RequireRole(string(user.RoleAdmin)))
		{
			admin.POST("/productos", d.ProductHandler.CreateProduct)
			admin.PUT("/productos/:id", d.ProductHandler.UpdateProduct)
			admin.DELETE("/productos/:id", d.ProductHandler.DeleteProduct)
			admin.POST("/productos/:id/image", d.ProductHandler.UploadImage)

			admin.GET("/admin/clientes", d.UserHandler.ListClients)
			admin.GET("/admin/clientes/excel", d.UserHandler.ExportClients)
			admin.POST("/admin/exports", d.ExportHandler.RequestExport)
			admin.GET("/admin/exports/:id", d.ExportHandler.GetExport)
		}
	}

	return router
}
