package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lareyna/reyna-api/adapters/event"
	httpAdapter "github.com/lareyna/reyna-api/adapters/http"
	"github.com/lareyna/reyna-api/adapters/media_storage"
	"github.com/lareyna/reyna-api/adapters/persistence"
	"github.com/lareyna/reyna-api/internal/application/service"
	authUC "github.com/lareyna/reyna-api/internal/application/usecase/auth"
	exportUC "github.com/lareyna/reyna-api/internal/application/usecase/export"
	productUC "github.com/lareyna/reyna-api/internal/application/usecase/product"
	userUC "github.com/lareyna/reyna-api/internal/application/usecase/user"
	"github.com/lareyna/reyna-api/internal/config"
	"github.com/lareyna/reyna-api/pkg/auth"
	"github.com/lareyna/reyna-api/pkg/logger"
	"github.com/lareyna/reyna-api/pkg/metrics"
	"github.com/lareyna/reyna-api/pkg/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewZapLogger("development").Fatal("cannot load config", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.NewZapLogger("development").Fatal("invalid config", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Start Reyna API Server...", zap.String("env", cfg.App.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(cfg.Tracing.OTLPEndpoint, cfg.App.Name, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init tracing", err)
	}
	defer shutdownTracing(context.Background())

	// Infrastructure
	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	var productCache service.ProductCache
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Warn("Redis unavailable, product cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			productCache = persistence.NewRedisProductCache(redisClient, cfg.Redis.ProductTTL)
		}
	}

	kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	imageStore, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	appMetrics := metrics.New()

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	productRepo := persistence.NewPostgresProductRepo(dbPool)
	exportRepo := persistence.NewPostgresExportRepo(dbPool)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan, cfg.Auth.Issuer)

	// Use Cases
	registerUC := authUC.NewRegisterUseCase(userRepo, jwtSvc, kafkaClient, appLogger)
	loginUC := authUC.NewLoginUseCase(userRepo, jwtSvc, appLogger)
	currentUserUC := authUC.NewGetCurrentUserUseCase(userRepo)
	workbookUC := exportUC.NewBuildWorkbookUseCase(productRepo, userRepo, appLogger)

	// HTTP Handlers
	authHandler := httpAdapter.NewAuthHandler(registerUC, loginUC, currentUserUC, appLogger)
	productHandler := httpAdapter.NewProductHandler(
		productUC.NewListProductsUseCase(productRepo, productCache, appMetrics, appLogger),
		productUC.NewGetProductUseCase(productRepo),
		productUC.NewManageProductUseCase(productRepo, imageStore, productCache, kafkaClient, appLogger),
		productUC.NewUploadProductImageUseCase(productRepo, imageStore, productCache, kafkaClient, appLogger),
		productUC.NewProductFeedUseCase(productRepo, cfg.App.PublicURL, appLogger),
		workbookUC,
		appLogger,
	)
	userHandler := httpAdapter.NewUserHandler(userUC.NewListUsersUseCase(userRepo, appLogger), workbookUC)
	exportHandler := httpAdapter.NewExportHandler(
		exportUC.NewRequestExportUseCase(exportRepo, kafkaClient, appLogger),
		exportUC.NewGetExportJobUseCase(exportRepo),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Logger:         appLogger,
		JWT:            jwtSvc,
		Metrics:        appMetrics,
		CORSOrigins:    cfg.App.CORSOrigins,
		AuthLimiter:    httpAdapter.NewIPRateLimiter(cfg.Auth.LoginRateLimit, cfg.Auth.LoginBurst),
		AuthHandler:    authHandler,
		ProductHandler: productHandler,
		UserHandler:    userHandler,
		ExportHandler:  exportHandler,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		appLogger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server stopped with error", err)
	}
}
