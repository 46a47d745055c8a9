package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/quickbite/storefront-api/internal/config"
	"github.com/quickbite/storefront-api/internal/email"
	feedhandler "github.com/quickbite/storefront-api/internal/handler/feed"
	healthhandler "github.com/quickbite/storefront-api/internal/handler/health"
	messagehandler "github.com/quickbite/storefront-api/internal/handler/message"
	notificationhandler "github.com/quickbite/storefront-api/internal/handler/notification"
	orderhandler "github.com/quickbite/storefront-api/internal/handler/order"
	producthandler "github.com/quickbite/storefront-api/internal/handler/product"
	userhandler "github.com/quickbite/storefront-api/internal/handler/user"
	webhookhandler "github.com/quickbite/storefront-api/internal/handler/webhook"
	"github.com/quickbite/storefront-api/internal/middleware"
	"github.com/quickbite/storefront-api/internal/repository/postgres"
	"github.com/quickbite/storefront-api/internal/router"
	"github.com/quickbite/storefront-api/internal/service/authz"
	eventservice "github.com/quickbite/storefront-api/internal/service/event"
	messageservice "github.com/quickbite/storefront-api/internal/service/message"
	notificationservice "github.com/quickbite/storefront-api/internal/service/notification"
	orderservice "github.com/quickbite/storefront-api/internal/service/order"
	productservice "github.com/quickbite/storefront-api/internal/service/product"
	userservice "github.com/quickbite/storefront-api/internal/service/user"
	"github.com/quickbite/storefront-api/pkg/auth"
	"github.com/quickbite/storefront-api/pkg/feed"
	"github.com/quickbite/storefront-api/pkg/logger"
	"github.com/quickbite/storefront-api/pkg/messaging/redis"
	"github.com/quickbite/storefront-api/pkg/metrics"
	"github.com/quickbite/storefront-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	changeFeed := feed.New(broker)
	m := metrics.NewMetrics("storefront", "api")

	// Repositories
	profileRepo := postgres.NewProfileRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	productRepo := postgres.NewProductRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	authzSvc := authz.NewService(roleRepo)
	eventSvc := eventservice.NewService(outboxRepo)
	messageSvc := messageservice.NewService(messageRepo, profileRepo, authzSvc, eventSvc, appLogger)
	orderSvc := orderservice.NewService(orderRepo, productRepo, profileRepo, authzSvc, eventSvc, appLogger)
	productSvc := productservice.NewService(productRepo, authzSvc, changeFeed, appLogger)
	userSvc := userservice.NewService(profileRepo, roleRepo, authzSvc, eventSvc, appLogger)
	// The API serves the notification read side only; fan-out and
	// email delivery live in the worker process.
	notificationSvc := notificationservice.NewService(notificationRepo, roleRepo, profileRepo, changeFeed, email.NewNoopSender(), appLogger, m)

	// Middleware
	verifier := auth.NewVerifier(cfg.JWT.Secret)
	authMiddleware := middleware.NewAuthMiddleware(verifier, authzSvc)

	// Handlers
	handlers := router.Handlers{
		Health:       healthhandler.NewHandler(db),
		Message:      messagehandler.NewHandler(messageSvc),
		Notification: notificationhandler.NewHandler(notificationSvc),
		Order:        orderhandler.NewHandler(orderSvc),
		Product:      producthandler.NewHandler(productSvc),
		User:         userhandler.NewHandler(userSvc),
		Webhook:      webhookhandler.NewHandler(userSvc, security.NewBcryptHasher(0), cfg.Webhook.SecretHash),
		Feed:         feedhandler.NewHandler(changeFeed),
	}

	r := router.New(authMiddleware, handlers, m, router.Config{
		RateLimit:  rate.Limit(cfg.RateLimit.RPS),
		RateBurst:  cfg.RateLimit.Burst,
		CORSConfig: middleware.DefaultCORSConfig(),
		Timeout:    cfg.Server.RequestTimeout,
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
