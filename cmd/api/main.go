package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/flashdash-service/internal/api/http/handlers"
	"github.com/spec-kit/flashdash-service/internal/auth"
	"github.com/spec-kit/flashdash-service/internal/config"
	"github.com/spec-kit/flashdash-service/internal/crm"
	"github.com/spec-kit/flashdash-service/internal/observability"
	"github.com/spec-kit/flashdash-service/internal/persistence"
	"github.com/spec-kit/flashdash-service/internal/repository"
	"github.com/spec-kit/flashdash-service/internal/service"

	httptransport "github.com/spec-kit/flashdash-service/internal/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	userRepo := repository.NewUserRepository(pg.PoolHandle())

	authService := service.NewAuthService(cfg.Auth, userRepo)
	userService := service.NewUserService(cfg.Auth, userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())

	tokenCache := crm.NewTokenCache(cfg.CRM, crm.TokenCacheDeps{
		Redis:   redis.Client,
		Logger:  logger,
		Metrics: metrics,
	})
	gateway := crm.NewGateway(cfg.CRM, tokenCache, nil, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, cfg, logger, metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Admin:          handlers.NewAdminHandler(userService),
		Crm:            handlers.NewCrmHandler(gateway),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
