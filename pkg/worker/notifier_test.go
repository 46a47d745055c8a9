package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository/repositorytest"
	"github.com/quickbite/storefront-api/pkg/logger"
	"github.com/quickbite/storefront-api/pkg/metrics"
)

type stubHandler struct {
	calls    int
	failures int
}

func (h *stubHandler) HandleEvent(ctx context.Context, event *model.OutboxEvent) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("handler failed")
	}
	return nil
}

func newNotifier(repo *repositorytest.OutboxRepo, handler EventHandler) *Notifier {
	return NewNotifier(repo, handler, NotifierConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(nil), metrics.NewTestMetrics())
}

func TestProcessEventsMarksProcessed(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.OutboxEvent{
		EventType: model.EventOrderCreated,
		Payload:   []byte(`{}`),
		Status:    string(model.OutboxStatusPending),
	}))

	handler := &stubHandler{}
	n := newNotifier(repo, handler)
	require.NoError(t, n.processEvents(ctx))

	assert.Equal(t, 1, handler.calls)
	assert.Equal(t, string(model.OutboxStatusProcessed), repo.Events[0].Status)
	assert.NotNil(t, repo.Events[0].ProcessedAt)

	// Processed events are not claimed again.
	require.NoError(t, n.processEvents(ctx))
	assert.Equal(t, 1, handler.calls)
}

func TestProcessEventRetriesThenSucceeds(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.OutboxEvent{
		EventType: model.EventMessageReplied,
		Payload:   []byte(`{}`),
		Status:    string(model.OutboxStatusPending),
	}))

	handler := &stubHandler{failures: 2}
	n := newNotifier(repo, handler)
	require.NoError(t, n.processEvents(ctx))

	assert.Equal(t, 3, handler.calls)
	assert.Equal(t, string(model.OutboxStatusProcessed), repo.Events[0].Status)
}

func TestProcessEventMarksFailedAfterRetriesExhausted(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.OutboxEvent{
		EventType: model.EventUserSignedUp,
		Payload:   []byte(`{}`),
		Status:    string(model.OutboxStatusPending),
	}))

	handler := &stubHandler{failures: 100}
	n := newNotifier(repo, handler)
	require.NoError(t, n.processEvents(ctx))

	assert.Equal(t, 3, handler.calls)
	assert.Equal(t, string(model.OutboxStatusFailed), repo.Events[0].Status)
	require.NotNil(t, repo.Events[0].ErrorMessage)
	assert.Equal(t, "handler failed", *repo.Events[0].ErrorMessage)
	assert.Nil(t, repo.Events[0].ProcessedAt)
}

func TestNewNotifierValidatesConfig(t *testing.T) {
	repo := repositorytest.NewOutboxRepo()

	assert.Panics(t, func() {
		NewNotifier(repo, &stubHandler{}, NotifierConfig{
			PollInterval:  time.Second,
			RetryAttempts: 1,
			RetryDelay:    time.Second,
		}, logger.NewLogger(nil), metrics.NewTestMetrics())
	})
}
