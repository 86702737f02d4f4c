package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docvault/docs"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logger"
	"docvault/internal/metrics"
	tracing "docvault/internal/otel"
	"docvault/internal/permission"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
	"docvault/internal/storage"
	"docvault/internal/verifier"
)

const maxUploadBytes = 50 << 20

// @title docvault API
// @version 1.0
// @description Document storage with content-hash verification and role permissions.
// @description The caller's role is read from the X-Account-Role header, which the authenticating gateway
// @description in front of this service must strip from client requests and set itself.
// @description While no permission table is stored every role is allowed, PUT /permissions included.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Location())
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	blobs, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err))
	}
	if c, ok := blobs.(io.Closer); ok {
		defer c.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics, err := metrics.NewDomain(reg)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}

	// Permission table: snapshot store, in-memory cache, optional cross-process fan-out
	permStore, closePermStore, err := permission.OpenStore(ctx, cfg, db)
	if err != nil {
		log.Fatal("failed to open permission store", zap.Error(err))
	}
	defer closePermStore(context.Background())

	permCache := permission.NewCache(permStore, log, domainMetrics)
	if err := permCache.Init(ctx); err != nil {
		log.Fatal("failed to load permission table", zap.Error(err))
	}

	notifier, err := permission.NewRedisNotifier(ctx, cfg.Permission.RedisURL, cfg.Permission.Channel, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	var permOpts []permission.ServiceOption
	if notifier != nil {
		defer notifier.Close()
		permOpts = append(permOpts, permission.WithNotifier(notifier))
	}
	permSvc := permission.NewService(permStore, permCache, log, permOpts...)

	// Repositories and services
	accountRepo := postgres.NewAccountPostgres(db)
	typeRepo := postgres.NewDocumentTypePostgres(db)
	hashVerifier := verifier.New(
		verifier.FilesURL(cfg.Verifier.PublicBaseURL),
		cfg.Verifier.Timeout(),
		verifier.WithMetrics(domainMetrics),
	)
	docSvc := service.NewDocumentService(
		blobs,
		postgres.NewDocumentPostgres(db),
		accountRepo,
		typeRepo,
		hashVerifier,
		service.WithLogger(log),
		service.WithMetrics(domainMetrics),
	)
	shareSvc := service.NewShareService(accountRepo, typeRepo)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             maxUploadBytes,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:          db,
		Documents:   docSvc,
		Shares:      shareSvc,
		Permissions: permSvc,
		Checker:     permCache,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", ":"+cfg.Port), zap.String("storage_driver", cfg.Storage.Driver))
		return app.Listen(":" + cfg.Port)
	})
	if notifier != nil {
		g.Go(func() error {
			return notifier.Subscribe(gctx, permCache.HandleInvalidation)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped with error", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Warn("tracing shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
