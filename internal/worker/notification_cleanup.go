package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/quickbite/storefront-api/internal/repository"
	"github.com/quickbite/storefront-api/pkg/logger"
	"github.com/quickbite/storefront-api/pkg/metrics"
)

// NotificationCleanupWorker purges read notifications past the
// retention window. Unread notifications are never touched.
type NotificationCleanupWorker struct {
	repo            repository.NotificationRepository
	retentionDays   int
	cleanupInterval time.Duration
	logger          *logger.Logger
	metrics         *metrics.Metrics
}

func NewNotificationCleanupWorker(
	repo repository.NotificationRepository,
	retentionDays int,
	cleanupInterval time.Duration,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *NotificationCleanupWorker {
	return &NotificationCleanupWorker{
		repo:            repo,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		logger:          logger,
		metrics:         metrics,
	}
}

func (w *NotificationCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.logger.Error(err, "Failed to clean up notifications")
			}
		}
	}
}

func (w *NotificationCleanupWorker) cleanup(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete read notifications: %w", err)
	}

	if rows > 0 {
		w.metrics.NotificationsPurged.Add(float64(rows))
		w.logger.Info("Purged read notifications", "count", rows, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
