package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mutiara-bangsa/storefront/internal/app"
	"github.com/mutiara-bangsa/storefront/internal/audit"
	audithttp "github.com/mutiara-bangsa/storefront/internal/audit/http"
	"github.com/mutiara-bangsa/storefront/internal/auth"
	"github.com/mutiara-bangsa/storefront/internal/catalog"
	"github.com/mutiara-bangsa/storefront/internal/observability"
	"github.com/mutiara-bangsa/storefront/internal/platform/cache"
	"github.com/mutiara-bangsa/storefront/internal/platform/db"
	"github.com/mutiara-bangsa/storefront/internal/platform/storage"
	"github.com/mutiara-bangsa/storefront/internal/rbac"
	"github.com/mutiara-bangsa/storefront/internal/shared"
	"github.com/mutiara-bangsa/storefront/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Default().Warn("load .env", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := newImageStore(ctx, cfg)
	if err != nil {
		logger.Error("init image storage", slog.String("driver", cfg.StorageDriver), slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "storefront_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	listingCache := catalog.NewListingCache(redisClient, cfg.CatalogCacheTTL, logger, metrics)

	catalogService := catalog.NewService(catalog.Repositories{
		Products:   catalog.NewProductRepository(dbpool),
		Categories: catalog.NewCategoryRepository(dbpool),
		Variants:   catalog.NewVariantRepository(dbpool),
	}, store, listingCache, auditLogger, metrics, catalog.ServiceConfig{MaxUploadBytes: cfg.MaxUploadBytes}, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService, templates, csrfManager, cfg.MaxUploadBytes)

	auditService := audit.NewService(audit.NewRepository(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService, templates, audit.NewExporter(), csrfManager)

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Principals: rbacService, Logger: logger}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		CatalogHandler: catalogHandler,
		AuditHandler:   auditHandler,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("storage", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func newImageStore(ctx context.Context, cfg *app.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case app.StorageDriverS3:
		return storage.NewS3(ctx, storage.S3Options{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.StorageBucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			KeyPrefix:     catalog.ImageKeyPrefix,
		})
	case app.StorageDriverCloudinary:
		return storage.NewCloudinary(cfg.CloudinaryURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
