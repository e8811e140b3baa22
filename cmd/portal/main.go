package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/auth-portal/internal/api/http"
	"github.com/spec-kit/auth-portal/internal/api/http/handlers"
	"github.com/spec-kit/auth-portal/internal/apiclient"
	"github.com/spec-kit/auth-portal/internal/config"
	"github.com/spec-kit/auth-portal/internal/events"
	"github.com/spec-kit/auth-portal/internal/observability"
	"github.com/spec-kit/auth-portal/internal/persistence"
	"github.com/spec-kit/auth-portal/internal/router"
	"github.com/spec-kit/auth-portal/internal/session"
	"github.com/spec-kit/auth-portal/internal/submit"
	"github.com/spec-kit/auth-portal/internal/web"
	"github.com/spec-kit/auth-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handlers.Pinger{}
	var store session.Store
	switch cfg.Portal.SessionStore {
	case "redis":
		redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()
		checks["redis"] = redis
		store = session.NewRedisStore(redis.Client, cfg.Portal.SessionTTL())
	default:
		memory := session.NewMemoryStore(cfg.Portal.SessionTTL())
		memory.StartSweeper(ctx, time.Minute)
		store = memory
	}

	client, err := apiclient.New(cfg.Portal.APIBaseURL, nil, cfg.Portal.APITimeout())
	if err != nil {
		logger.Fatal("invalid api client config", zap.Error(err))
	}

	rootForm, err := router.ParsePage(cfg.Portal.RootForm)
	if err != nil {
		logger.Fatal("invalid root form", zap.Error(err))
	}
	renderer, err := router.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartDiagnosticsWorker(dispatcher, logger, metrics)

	lockTTL := submit.WithLockTTL(cfg.Portal.SubmitLock())
	pages := web.NewHandler(web.HandlerDeps{
		Router:   router.Default(rootForm, cfg.Portal.DashboardURL),
		Renderer: renderer,
		Workflows: []*submit.Workflow{
			submit.New(submit.Login, client, submit.WithDispatcher(dispatcher), lockTTL),
			submit.New(submit.Registration, client, submit.WithDispatcher(dispatcher), lockTTL),
		},
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), httptransport.TextErrorRenderer)
	web.RegisterRoutes(app, web.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, checks),
		Pages:  pages,
		Session: session.NewMiddleware(store, session.CookieConfig{
			Name:   cfg.Portal.SessionCookieName,
			Secure: cfg.Portal.CookieSecure,
			MaxAge: cfg.Portal.SessionTTL(),
		}),
	})

	go func() {
		logger.Info("portal listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("api", cfg.Portal.APIBaseURL),
			zap.String("root_form", cfg.Portal.RootForm),
			zap.String("session_store", cfg.Portal.SessionStore),
		)
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
