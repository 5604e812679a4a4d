package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/community-hub/internal/api/graph"
	httptransport "github.com/spec-kit/community-hub/internal/api/http"
	"github.com/spec-kit/community-hub/internal/api/http/handlers"
	"github.com/spec-kit/community-hub/internal/config"
	"github.com/spec-kit/community-hub/internal/observability"
	"github.com/spec-kit/community-hub/internal/persistence"
	"github.com/spec-kit/community-hub/internal/repository"
	"github.com/spec-kit/community-hub/internal/service"
	"github.com/spec-kit/community-hub/internal/session"
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

	pg, err := persistence.NewPostgres(ctx, cfg.AuthDB, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.AuthDB.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.AuthDB.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	tokens := session.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL())
	sessions := session.NewMiddleware(tokens, cfg.Session.CookieName)

	credentialRepo := repository.NewCredentialRepository(pg.PoolHandle())
	authService := service.NewAuthService(credentialRepo, tokens, cfg.Session.BcryptCost)

	schema, err := graph.NewAuthSchema(authService)
	if err != nil {
		logger.Fatal("failed to build schema", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.Auth.Name, pg, nil),
		GraphQL:  graph.NewHandler(schema, sessions, logger, metrics),
		Sessions: sessions,
	})

	go func() {
		if err := app.Listen(cfg.Auth.Addr(cfg.App.Host)); err != nil {
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
