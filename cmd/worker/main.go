package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/quickbite/storefront-api/internal/config"
	"github.com/quickbite/storefront-api/internal/email"
	"github.com/quickbite/storefront-api/internal/repository/postgres"
	notificationservice "github.com/quickbite/storefront-api/internal/service/notification"
	internalworker "github.com/quickbite/storefront-api/internal/worker"
	"github.com/quickbite/storefront-api/pkg/feed"
	"github.com/quickbite/storefront-api/pkg/logger"
	"github.com/quickbite/storefront-api/pkg/messaging/redis"
	"github.com/quickbite/storefront-api/pkg/metrics"
	"github.com/quickbite/storefront-api/pkg/worker"
)

// WorkerEnv tunes the worker loops. These knobs change per deployment,
// not per environment file, so they come straight from the process env.
type WorkerEnv struct {
	BatchSize       int           `envconfig:"WORKER_BATCH_SIZE" default:"100"`
	PollInterval    time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
	RetryAttempts   int           `envconfig:"WORKER_RETRY_ATTEMPTS" default:"3"`
	RetryDelay      time.Duration `envconfig:"WORKER_RETRY_DELAY" default:"5s"`
	RetentionDays   int           `envconfig:"NOTIFICATION_RETENTION_DAYS" default:"30"`
	CleanupInterval time.Duration `envconfig:"NOTIFICATION_CLEANUP_INTERVAL" default:"1h"`
	HealthAddr      string        `envconfig:"WORKER_HEALTH_ADDR" default:":8081"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var env WorkerEnv
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to process worker environment")
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

	m := metrics.NewMetrics("storefront", "worker")
	changeFeed := feed.New(broker)

	profileRepo := postgres.NewProfileRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	var sender email.Sender
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(cfg.SMTP, appLogger)
	} else {
		appLogger.Info("No SMTP relay configured, email delivery disabled")
		sender = email.NewNoopSender()
	}

	notificationSvc := notificationservice.NewService(
		notificationRepo,
		roleRepo,
		profileRepo,
		changeFeed,
		sender,
		appLogger,
		m,
	)

	notifier := worker.NewNotifier(outboxRepo, notificationSvc, worker.NotifierConfig{
		BatchSize:     env.BatchSize,
		PollInterval:  env.PollInterval,
		RetryAttempts: env.RetryAttempts,
		RetryDelay:    env.RetryDelay,
	}, appLogger, m)

	cleanup := internalworker.NewNotificationCleanupWorker(
		notificationRepo,
		env.RetentionDays,
		env.CleanupInterval,
		appLogger,
		m,
	)

	startHealthServer(env.HealthAddr, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	go cleanup.Start(ctx)
	notifier.Start(ctx)
}

func startHealthServer(addr string, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			appLogger.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
}
