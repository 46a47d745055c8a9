package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
	"github.com/quickbite/storefront-api/pkg/logger"
	"github.com/quickbite/storefront-api/pkg/metrics"
)

// EventHandler consumes a drained outbox event. The notification
// service is the production implementation.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *model.OutboxEvent) error
}

type NotifierConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// Notifier drains the outbox and hands each event to the handler.
// Events are claimed with row locks, so multiple notifier instances
// can run side by side without double delivery.
type Notifier struct {
	repo    repository.OutboxRepository
	handler EventHandler
	config  NotifierConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewNotifier(
	repo repository.OutboxRepository,
	handler EventHandler,
	config NotifierConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Notifier {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &Notifier{
		repo:    repo,
		handler: handler,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (n *Notifier) Start(ctx context.Context) {
	ticker := time.NewTicker(n.config.PollInterval)
	defer ticker.Stop()

	n.logger.Info("Starting notifier")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Shutting down notifier")
			return
		case <-ticker.C:
			if err := n.processEvents(ctx); err != nil {
				n.logger.Error(err, "Failed to process events")
			}
		}
	}
}

func (n *Notifier) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(n.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := n.repo.GetPendingEventsWithLock(ctx, n.config.BatchSize)
	if err != nil {
		n.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	n.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()
	n.metrics.OutboxQueueSize.Set(float64(len(events)))

	for _, event := range events {
		if err := n.processEvent(ctx, event); err != nil {
			n.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
			continue
		}
	}

	return nil
}

func (n *Notifier) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := retry(n.config.RetryAttempts, n.config.RetryDelay, func() error {
		return n.handler.HandleEvent(ctx, event)
	})
	if err != nil {
		n.metrics.OutboxEventsFailed.Inc()
		n.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		errStr := err.Error()
		if updateErr := n.repo.UpdateStatus(ctx, event.ID, string(model.OutboxStatusFailed), &errStr, nil); updateErr != nil {
			n.logger.Error(updateErr, "Failed to update event status")
		}
		return err
	}

	n.metrics.OutboxEventsProcessed.Inc()
	now := time.Now()
	if err := n.repo.UpdateStatus(ctx, event.ID, string(model.OutboxStatusProcessed), nil, &now); err != nil {
		n.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
		return err
	}

	return nil
}

func retry(attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
