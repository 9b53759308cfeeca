package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lareyna/reyna-api/adapters/event"
	"github.com/lareyna/reyna-api/adapters/media_storage"
	"github.com/lareyna/reyna-api/adapters/persistence"
	"github.com/lareyna/reyna-api/internal/application/service"
	exportUC "github.com/lareyna/reyna-api/internal/application/usecase/export"
	productUC "github.com/lareyna/reyna-api/internal/application/usecase/product"
	"github.com/lareyna/reyna-api/internal/config"
	"github.com/lareyna/reyna-api/pkg/logger"
	"github.com/lareyna/reyna-api/pkg/metrics"
	"github.com/lareyna/reyna-api/pkg/tracing"
)

// metricsAddr serves /metrics for the worker; the API port belongs to the server.
const metricsAddr = ":9091"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewZapLogger("development").Fatal("cannot load config", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env).With(zap.String("component", "worker"))
	defer appLogger.Sync()
	appLogger.Info("Starting Reyna Worker...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(cfg.Tracing.OTLPEndpoint, cfg.App.Name+"-worker", appLogger)
	if err != nil {
		appLogger.Fatal("cannot init tracing", err)
	}
	defer shutdownTracing(context.Background())

	// Database
	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	var productCache service.ProductCache
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Warn("Redis unavailable, cache invalidation disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			productCache = persistence.NewRedisProductCache(redisClient, cfg.Redis.ProductTTL)
		}
	}

	// Storage
	imageStore, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize image storage", err)
	}
	fileStore, err := media_storage.NewFileUploader(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize file storage", err)
	}

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	productRepo := persistence.NewPostgresProductRepo(dbPool)
	exportRepo := persistence.NewPostgresExportRepo(dbPool)

	// Worker Use Cases
	processProductUC := productUC.NewProcessProductEventUseCase(productRepo, imageStore, productCache, appLogger)
	processExportUC := exportUC.NewProcessExportUseCase(
		exportRepo,
		exportUC.NewBuildWorkbookUseCase(productRepo, userRepo, appLogger),
		fileStore,
		appLogger,
	)

	appMetrics := metrics.New()
	opts := event.DefaultConsumerOptions()

	productReader := event.NewKafkaReader(cfg, event.TopicProductEvents)
	defer productReader.Close()
	exportReader := event.NewKafkaReader(cfg, event.TopicExportEvents)
	defer exportReader.Close()

	consumers := []*event.Consumer{
		event.NewConsumer(productReader, event.TopicProductEvents,
			event.JSONHandler(processProductUC.Execute), appMetrics, opts, appLogger),
		event.NewConsumer(exportReader, event.TopicExportEvents,
			event.JSONHandler(processExportUC.Execute), appMetrics, opts, appLogger),
	}

	metricsSrv := &http.Server{Addr: metricsAddr, Handler: appMetrics.Handler(), ReadHeaderTimeout: 5 * time.Second}

	g, gCtx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		g.Go(func() error { return c.Run(gCtx) })
	}
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Worker stopped with error", err)
	}
	appLogger.Info("Worker stopped")
}
