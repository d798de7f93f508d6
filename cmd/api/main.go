package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-dashboard/internal/api/http"
	"github.com/spec-kit/helpdesk-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-dashboard/internal/auth"
	"github.com/spec-kit/helpdesk-dashboard/internal/cache"
	"github.com/spec-kit/helpdesk-dashboard/internal/config"
	"github.com/spec-kit/helpdesk-dashboard/internal/events"
	"github.com/spec-kit/helpdesk-dashboard/internal/observability"
	"github.com/spec-kit/helpdesk-dashboard/internal/persistence"
	"github.com/spec-kit/helpdesk-dashboard/internal/repository"
	"github.com/spec-kit/helpdesk-dashboard/internal/service"
	"github.com/spec-kit/helpdesk-dashboard/internal/worker"
)

const notificationQueueSize = 64

func main() {
	var opts config.Options
	flags := pflag.NewFlagSet("helpdesk-dashboard", pflag.ExitOnError)
	flags.StringVar(&opts.EnvFile, "env-file", "", "path to a .env file (default: ./.env when present)")
	flags.StringVar(&opts.ConfigFile, "config", "", "YAML overlay for zammad, refresh and notification settings")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(opts)
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

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.Migrations(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notifyWorker := worker.StartNotificationWorker(ctx, logger, notificationQueueSize, cfg.Zammad.Timeout())

	var arrivals repository.ArrivalRepository
	if pg.Enabled() {
		arrivals = repository.NewArrivalRepository(pg.PoolHandle())
	}
	var desktop service.DesktopNotifier
	if cfg.Notification.WebhookURL != "" {
		desktop = service.NewWebhookNotifier(cfg.Notification.WebhookURL, cfg.Zammad.Timeout())
	}
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, service.NotificationDependencies{
		Desktop:  desktop,
		Worker:   notifyWorker,
		Redis:    redis,
		Arrivals: arrivals,
	})
	notificationService.RegisterHandlers()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	sessionService, err := service.NewSessionService(cfg, service.SessionDependencies{
		Logger:        logger,
		Metrics:       metrics,
		Dispatcher:    dispatcher,
		Tokens:        tokens,
		Notifications: notificationService,
		Views:         cache.NewViewCache(redis, cfg.Redis.ViewTTL()),
		ClientFactory: service.ZammadClientFactory,
	})
	if err != nil {
		logger.Fatal("failed to build session service", zap.Error(err))
	}
	sessionService.RegisterHandlers()

	if _, err := sessionService.Resume(ctx); err != nil && !errors.Is(err, service.ErrNoSessionCookie) {
		logger.Warn("could not resume helpdesk session", zap.Error(err))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		BasePath:       cfg.App.BasePath,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, sessionService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(sessionService, cfg.App.Env == "production"),
		Dashboard:      handlers.NewDashboardHandler(sessionService, logger, cfg.Refresh.MaxPeriodDays),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, sessionService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)
	sessionService.Shutdown()
	cancel()
	notifyWorker.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
