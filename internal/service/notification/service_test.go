package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository/repositorytest"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
	"github.com/quickbite/storefront-api/pkg/feed"
	"github.com/quickbite/storefront-api/pkg/logger"
	"github.com/quickbite/storefront-api/pkg/metrics"
)

type memoryBroker struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newMemoryBroker() *memoryBroker {
	return &memoryBroker{published: make(map[string][][]byte)}
}

func (b *memoryBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *memoryBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (b *memoryBroker) Close() error { return nil }

func (b *memoryBroker) count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published[channel])
}

type capturedEmail struct {
	To      string
	Subject string
}

type captureSender struct {
	mu   sync.Mutex
	sent []capturedEmail
	err  error
}

func (s *captureSender) Send(ctx context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, capturedEmail{To: to, Subject: subject})
	return nil
}

type fixture struct {
	svc           *Service
	notifications *repositorytest.NotificationRepo
	roles         *repositorytest.RoleRepo
	profiles      *repositorytest.ProfileRepo
	broker        *memoryBroker
	email         *captureSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	notifications := repositorytest.NewNotificationRepo()
	roles := repositorytest.NewRoleRepo()
	profiles := repositorytest.NewProfileRepo()
	broker := newMemoryBroker()
	sender := &captureSender{}
	svc := NewService(
		notifications,
		roles,
		profiles,
		feed.New(broker),
		sender,
		logger.NewLogger(nil),
		metrics.NewTestMetrics(),
	)
	return &fixture{svc: svc, notifications: notifications, roles: roles, profiles: profiles, broker: broker, email: sender}
}

func outboxEvent(t *testing.T, eventType string, payload interface{}) *model.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &model.OutboxEvent{ID: uuid.New(), EventType: eventType, Payload: raw}
}

func TestHandleOrderCreatedFansOutToAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin1 := uuid.New()
	admin2 := uuid.New()
	f.roles.Seed(admin1, model.RoleAdmin)
	f.roles.Seed(admin2, model.RoleAdmin)

	event := outboxEvent(t, model.EventOrderCreated, model.OrderEventPayload{
		OrderID:       uuid.New(),
		UserID:        uuid.New(),
		TotalAmount:   24.5,
		PaymentMethod: model.PaymentMethodCOD,
	})
	require.NoError(t, f.svc.HandleEvent(ctx, event))

	for _, admin := range []uuid.UUID{admin1, admin2} {
		rows, err := f.notifications.ListForUser(ctx, admin)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, model.NotificationNewOrder, rows[0].Type)
	}

	// One table-wide publish plus one row-scoped publish per recipient.
	assert.Equal(t, 2, f.broker.count("feed.notifications"))
	assert.Equal(t, 1, f.broker.count("feed.notifications.user_id."+admin1.String()))
}

func TestHandleOrderCreatedBankTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := uuid.New()
	f.roles.Seed(admin, model.RoleAdmin)

	txn := "TXN-55"
	event := outboxEvent(t, model.EventOrderCreated, model.OrderEventPayload{
		OrderID:       uuid.New(),
		UserID:        uuid.New(),
		TotalAmount:   99.0,
		PaymentMethod: model.PaymentMethodBankTransfer,
		TransactionID: &txn,
	})
	require.NoError(t, f.svc.HandleEvent(ctx, event))

	rows, err := f.notifications.ListForUser(ctx, admin)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotificationPaymentVerification, rows[0].Type)
	assert.Contains(t, rows[0].Message, "TXN-55")
}

func TestHandlePaymentResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := uuid.New()
	f.profiles.Seed(&model.Profile{ID: customer, Email: "customer@example.com"})

	event := outboxEvent(t, model.EventPaymentVerified, model.OrderEventPayload{
		OrderID: uuid.New(),
		UserID:  customer,
	})
	require.NoError(t, f.svc.HandleEvent(ctx, event))

	rows, err := f.notifications.ListForUser(ctx, customer)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotificationPaymentVerified, rows[0].Type)

	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "customer@example.com", f.email.sent[0].To)

	event = outboxEvent(t, model.EventPaymentRejected, model.OrderEventPayload{
		OrderID: uuid.New(),
		UserID:  customer,
	})
	require.NoError(t, f.svc.HandleEvent(ctx, event))

	rows, err = f.notifications.ListForUser(ctx, customer)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestHandleMessageRepliedEmailFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sender := uuid.New()
	f.profiles.Seed(&model.Profile{ID: sender, Email: "sender@example.com"})
	f.email.err = errors.New("smtp relay down")

	event := outboxEvent(t, model.EventMessageReplied, model.MessageRepliedPayload{
		MessageID: uuid.New(),
		SenderID:  sender,
		Subject:   "opening hours",
	})

	// The notification row still lands even when the email fails.
	require.NoError(t, f.svc.HandleEvent(ctx, event))

	rows, err := f.notifications.ListForUser(ctx, sender)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotificationMessageReply, rows[0].Type)
}

func TestHandleUserSignedUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := uuid.New()
	f.roles.Seed(admin, model.RoleAdmin)

	event := outboxEvent(t, model.EventUserSignedUp, model.UserSignedUpPayload{
		UserID:      uuid.New(),
		Email:       "new@example.com",
		DisplayName: "New Customer",
	})
	require.NoError(t, f.svc.HandleEvent(ctx, event))

	rows, err := f.notifications.ListForUser(ctx, admin)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotificationNewUserSignup, rows[0].Type)
	assert.Contains(t, rows[0].Message, "New Customer")
}

func TestHandleEventNoAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	event := outboxEvent(t, model.EventOrderDelivered, model.OrderEventPayload{
		OrderID: uuid.New(),
		UserID:  uuid.New(),
	})

	// An empty recipient set is not an error; the event is consumed.
	assert.NoError(t, f.svc.HandleEvent(ctx, event))
}

func TestHandleEventUnknownType(t *testing.T) {
	f := newFixture(t)
	event := &model.OutboxEvent{ID: uuid.New(), EventType: "order.exploded"}
	assert.Error(t, f.svc.HandleEvent(context.Background(), event))
}

func TestMarkReadScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()
	require.NoError(t, f.notifications.CreateBatch(ctx, []*model.Notification{
		{UserID: owner, Type: model.NotificationNewOrder, Title: "New Order"},
	}))

	rows, err := f.notifications.ListForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id := rows[0].ID

	err = f.svc.MarkRead(ctx, model.Session{UserID: stranger}, id)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	require.NoError(t, f.svc.MarkRead(ctx, model.Session{UserID: owner}, id))

	count, err := f.svc.UnreadCount(ctx, model.Session{UserID: owner})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
