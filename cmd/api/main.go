package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/mfrelance/workflow-service/internal/api/http"
	"github.com/mfrelance/workflow-service/internal/api/http/handlers"
	"github.com/mfrelance/workflow-service/internal/auth"
	"github.com/mfrelance/workflow-service/internal/backend"
	"github.com/mfrelance/workflow-service/internal/config"
	"github.com/mfrelance/workflow-service/internal/events"
	"github.com/mfrelance/workflow-service/internal/observability"
	"github.com/mfrelance/workflow-service/internal/persistence"
	"github.com/mfrelance/workflow-service/internal/repository"
	"github.com/mfrelance/workflow-service/internal/service"
	"github.com/mfrelance/workflow-service/internal/worker"
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

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	ticketMsgRepo := repository.NewTicketMessageRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	disputeRepo := repository.NewDisputeRepository(pool)
	triageLease := repository.NewTriageLease(redis.Client)

	backendClient := backend.NewClient(backend.Options{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout(),
		RetryReads: cfg.Backend.RetryReads,
	})
	directories := backend.NewFactory(backendClient)

	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: ticketMsgRepo,
		Leases:      triageLease,
		Dispatcher:  dispatcher,
	})
	chatService := service.NewChatService(chatRepo, dispatcher)
	disputeService := service.NewDisputeService(disputeRepo, dispatcher)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService, directories, cfg.Upload.MaxBytes),
		Chat:           handlers.NewChatHandler(chatService, directories, cfg.Upload.MaxBytes),
		Disputes:       handlers.NewDisputesHandler(disputeService, directories, cfg.Upload.MaxBytes),
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
