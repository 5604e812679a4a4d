package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/community-hub/internal/api/http"
	"github.com/spec-kit/community-hub/internal/api/http/handlers"
	"github.com/spec-kit/community-hub/internal/config"
	"github.com/spec-kit/community-hub/internal/gateway"
	"github.com/spec-kit/community-hub/internal/observability"
	"github.com/spec-kit/community-hub/internal/persistence"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	client := &http.Client{Timeout: cfg.Gateway.SubgraphTimeout()}
	subgraphs := []gateway.Subgraph{
		{Name: "auth", URL: cfg.Gateway.AuthURL},
		{Name: "community", URL: cfg.Gateway.CommunityURL},
	}

	composer := gateway.NewComposer(subgraphs, client, redis, logger)
	table, err := composer.Compose(ctx)
	if err != nil {
		logger.Fatal("failed to compose subgraph schemas", zap.Error(err))
	}
	logger.Info("composed routing table",
		zap.Int("query_fields", len(table.Query)),
		zap.Int("mutation_fields", len(table.Mutation)))

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	health := handlers.NewHealthHandler("gateway", nil, redis)
	gatewayHandler := gateway.NewHandler(table, gateway.NewForwarder(client), logger)

	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)
	app.Post("/graphql", gatewayHandler.Handle)

	go func() {
		if err := app.Listen(cfg.Gateway.Addr(cfg.App.Host)); err != nil {
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
