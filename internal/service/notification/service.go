package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/email"
	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
	"github.com/quickbite/storefront-api/pkg/feed"
	"github.com/quickbite/storefront-api/pkg/logger"
	"github.com/quickbite/storefront-api/pkg/metrics"
)

// Service materializes notification rows from domain events and serves
// the recipient-facing notification API. Fan-out is best-effort end to
// end: a failed email or feed publish is logged, never propagated.
type Service struct {
	repo        repository.NotificationRepository
	roleRepo    repository.RoleRepository
	profileRepo repository.ProfileRepository
	changeFeed  *feed.Feed
	emailSvc    email.Sender
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

func NewService(
	repo repository.NotificationRepository,
	roleRepo repository.RoleRepository,
	profileRepo repository.ProfileRepository,
	changeFeed *feed.Feed,
	emailSvc email.Sender,
	logger *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:        repo,
		roleRepo:    roleRepo,
		profileRepo: profileRepo,
		changeFeed:  changeFeed,
		emailSvc:    emailSvc,
		logger:      logger,
		metrics:     m,
	}
}

// HandleEvent maps one domain event onto its recipient set and writes
// one notification row per recipient.
func (s *Service) HandleEvent(ctx context.Context, event *model.OutboxEvent) error {
	switch event.EventType {
	case model.EventOrderCreated:
		return s.handleOrderCreated(ctx, event)
	case model.EventPaymentVerified:
		return s.handlePaymentResult(ctx, event, true)
	case model.EventPaymentRejected:
		return s.handlePaymentResult(ctx, event, false)
	case model.EventOrderDelivered:
		return s.handleOrderDelivered(ctx, event)
	case model.EventMessageReplied:
		return s.handleMessageReplied(ctx, event)
	case model.EventUserSignedUp:
		return s.handleUserSignedUp(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.EventType)
	}
}

func (s *Service) handleOrderCreated(ctx context.Context, event *model.OutboxEvent) error {
	var payload model.OrderEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode order payload: %w", err)
	}

	kind := model.NotificationNewOrder
	title := "New Order"
	body := fmt.Sprintf("New order received. Amount: %.2f", payload.TotalAmount)
	if payload.PaymentMethod == model.PaymentMethodBankTransfer {
		kind = model.NotificationPaymentVerification
		title = "Payment Verification Required"
		txn := ""
		if payload.TransactionID != nil {
			txn = *payload.TransactionID
		}
		body = fmt.Sprintf("New transfer payment received. Transaction ID: %s. Amount: %.2f", txn, payload.TotalAmount)
	}

	return s.fanOutToAdmins(ctx, kind, title, body, event.Payload)
}

func (s *Service) handlePaymentResult(ctx context.Context, event *model.OutboxEvent, verified bool) error {
	var payload model.OrderEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode order payload: %w", err)
	}

	kind := model.NotificationPaymentVerified
	title := "Payment Verified"
	body := "Your payment has been verified. Your order is confirmed!"
	if !verified {
		kind = model.NotificationPaymentRejected
		title = "Payment Issue"
		body = "We could not verify your payment. Please contact support."
	}

	if err := s.deliver(ctx, []uuid.UUID{payload.UserID}, kind, title, body, event.Payload); err != nil {
		return err
	}

	s.sendEmail(ctx, payload.UserID, title, body)
	return nil
}

func (s *Service) handleOrderDelivered(ctx context.Context, event *model.OutboxEvent) error {
	var payload model.OrderEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode order payload: %w", err)
	}

	body := fmt.Sprintf("Order %s has been delivered.", payload.OrderID)
	return s.fanOutToAdmins(ctx, model.NotificationDeliveryCompleted, "Delivery Completed", body, event.Payload)
}

func (s *Service) handleMessageReplied(ctx context.Context, event *model.OutboxEvent) error {
	var payload model.MessageRepliedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode reply payload: %w", err)
	}

	title := "New Reply to Your Message"
	body := fmt.Sprintf("Your question %q has been answered.", payload.Subject)
	if err := s.deliver(ctx, []uuid.UUID{payload.SenderID}, model.NotificationMessageReply, title, body, event.Payload); err != nil {
		return err
	}

	s.sendEmail(ctx, payload.SenderID, title, body)
	return nil
}

func (s *Service) handleUserSignedUp(ctx context.Context, event *model.OutboxEvent) error {
	var payload model.UserSignedUpPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode signup payload: %w", err)
	}

	body := fmt.Sprintf("%s just signed up.", payload.DisplayName)
	return s.fanOutToAdmins(ctx, model.NotificationNewUserSignup, "New User Signup", body, event.Payload)
}

func (s *Service) fanOutToAdmins(ctx context.Context, kind model.NotificationType, title, body string, data json.RawMessage) error {
	admins, err := s.roleRepo.UsersWithRole(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to resolve admin recipients: %w", err)
	}
	if len(admins) == 0 {
		s.logger.Debug("no admins to notify", "type", string(kind))
		return nil
	}
	return s.deliver(ctx, admins, kind, title, body, data)
}

func (s *Service) deliver(ctx context.Context, recipients []uuid.UUID, kind model.NotificationType, title, body string, data json.RawMessage) error {
	notifications := make([]*model.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notifications = append(notifications, &model.Notification{
			UserID:  userID,
			Type:    kind,
			Title:   title,
			Message: body,
			Data:    data,
		})
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("failed to write notifications: %w", err)
	}
	s.metrics.NotificationsFanned.Add(float64(len(notifications)))

	for _, n := range notifications {
		record, err := json.Marshal(n)
		if err != nil {
			continue
		}
		filter := feed.Filter{Table: "notifications", Column: "user_id", Value: n.UserID.String()}
		if err := s.changeFeed.Publish(ctx, filter, feed.Change{
			Table:  "notifications",
			Action: feed.ActionInsert,
			Record: record,
		}); err != nil {
			s.logger.Error(err, "failed to publish notification change", "user_id", n.UserID.String())
		}
	}
	return nil
}

func (s *Service) sendEmail(ctx context.Context, userID uuid.UUID, subject, body string) {
	if s.emailSvc == nil {
		return
	}
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		s.logger.Error(err, "failed to load profile for email", "user_id", userID.String())
		return
	}
	if err := s.emailSvc.Send(ctx, profile.Email, subject, body); err != nil {
		s.logger.Error(err, "failed to send email", "user_id", userID.String())
	}
}

// ListForUser returns the session's own notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, session model.Session) ([]*model.Notification, error) {
	return s.repo.ListForUser(ctx, session.UserID)
}

func (s *Service) UnreadCount(ctx context.Context, session model.Session) (int, error) {
	return s.repo.CountUnread(ctx, session.UserID)
}

// MarkRead flips the read flag; the store scopes the write to the
// session's own rows.
func (s *Service) MarkRead(ctx context.Context, session model.Session, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("notification", err)
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
