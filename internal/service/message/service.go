package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
	"github.com/quickbite/storefront-api/internal/service/authz"
	"github.com/quickbite/storefront-api/internal/service/event"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
	"github.com/quickbite/storefront-api/pkg/logger"
)

type Service struct {
	repo        repository.MessageRepository
	profileRepo repository.ProfileRepository
	authz       *authz.Service
	emitter     event.Emitter
	logger      *logger.Logger
}

func NewService(
	repo repository.MessageRepository,
	profileRepo repository.ProfileRepository,
	authzSvc *authz.Service,
	emitter event.Emitter,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		profileRepo: profileRepo,
		authz:       authzSvc,
		emitter:     emitter,
		logger:      logger,
	}
}

// SendInput carries a new message. Recipient is validated against the
// tagged-union invariant before anything is written.
type SendInput struct {
	Subject   string
	Body      string
	Recipient model.Recipient
}

func (s *Service) Send(ctx context.Context, session model.Session, input SendInput) (*model.Message, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return nil, apperrors.Validation("subject is required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.Validation("body is required")
	}
	if err := input.Recipient.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	sender, err := s.profileRepo.Get(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("sender profile", err)
		}
		return nil, fmt.Errorf("failed to load sender profile: %w", err)
	}
	if sender.IsRestricted {
		return nil, apperrors.AccessDenied("account is restricted")
	}

	// Single-target recipients must reference an existing user.
	if target := input.Recipient.UserID; target != nil {
		if _, err := s.profileRepo.Get(ctx, *target); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("recipient", err)
			}
			return nil, fmt.Errorf("failed to load recipient profile: %w", err)
		}
	}

	msg := &model.Message{
		ID:        uuid.New(),
		SenderID:  session.UserID,
		Subject:   input.Subject,
		Body:      input.Body,
		Recipient: input.Recipient,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Sends are pulled by the recipient's inbox query; only replies
	// produce notifications.
	return msg, nil
}

// ListInbox returns messages addressed to the session directly plus
// broadcasts for roles the session holds, newest first.
func (s *Service) ListInbox(ctx context.Context, session model.Session) ([]*model.InboxMessage, error) {
	roles, err := s.authz.Roles(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles: %w", err)
	}
	return s.repo.ListInbox(ctx, session.UserID, roles)
}

func (s *Service) ListSent(ctx context.Context, session model.Session) ([]*model.SentMessage, error) {
	return s.repo.ListSent(ctx, session.UserID)
}

// Reply is a one-time transition. The conditional write in the store
// decides the winner; the race loser gets ConflictError with the
// surviving content untouched.
func (s *Service) Reply(ctx context.Context, session model.Session, messageID uuid.UUID, body string) (*model.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.Validation("reply body is required")
	}

	msg, err := s.repo.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("message", err)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	eligible, err := s.eligibleRecipient(ctx, session.UserID, msg)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, apperrors.AccessDenied("")
	}
	if msg.Replied() {
		return nil, apperrors.Conflict("message already has a reply", nil)
	}

	now := time.Now()
	if err := s.repo.SetReply(ctx, messageID, body, session.UserID, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReplied):
			return nil, apperrors.Conflict("message already has a reply", err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("message", err)
		default:
			return nil, fmt.Errorf("failed to set reply: %w", err)
		}
	}

	msg.Reply = &body
	msg.RepliedBy = &session.UserID
	msg.RepliedAt = &now
	msg.IsRead = false

	// Fan-out is best-effort relative to the reply itself.
	if err := s.emitter.Emit(ctx, model.EventMessageReplied, model.MessageRepliedPayload{
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Subject:   msg.Subject,
	}); err != nil {
		s.logger.Error(err, "failed to emit reply event", "message_id", msg.ID.String())
	}

	return msg, nil
}

// Delete removes the message for everyone: sender's sent list and every
// eligible recipient's inbox. The reply goes with the row.
func (s *Service) Delete(ctx context.Context, session model.Session, messageID uuid.UUID) error {
	msg, err := s.repo.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("message", err)
		}
		return fmt.Errorf("failed to get message: %w", err)
	}

	if msg.SenderID != session.UserID {
		eligible, err := s.eligibleRecipient(ctx, session.UserID, msg)
		if err != nil {
			return err
		}
		if !eligible {
			return apperrors.AccessDenied("")
		}
	}

	if err := s.repo.Delete(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("message", err)
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// MarkReplyRead flips the sender-side flag once the sender has seen the
// reply. Only the sender may do this.
func (s *Service) MarkReplyRead(ctx context.Context, session model.Session, messageID uuid.UUID) error {
	msg, err := s.repo.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("message", err)
		}
		return fmt.Errorf("failed to get message: %w", err)
	}
	if msg.SenderID != session.UserID {
		return apperrors.AccessDenied("")
	}
	return s.repo.MarkRead(ctx, messageID)
}

// MarkOpened flips the recipient-side flag when someone in the
// recipient set opens the message.
func (s *Service) MarkOpened(ctx context.Context, session model.Session, messageID uuid.UUID) error {
	msg, err := s.repo.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("message", err)
		}
		return fmt.Errorf("failed to get message: %w", err)
	}
	eligible, err := s.eligibleRecipient(ctx, session.UserID, msg)
	if err != nil {
		return err
	}
	if !eligible {
		return apperrors.AccessDenied("")
	}
	return s.repo.MarkRecipientRead(ctx, messageID)
}

// eligibleRecipient reports whether the user is in the message's
// recipient set: the addressed individual, any admin for admin
// broadcasts, and any employee or admin for all_employees broadcasts.
func (s *Service) eligibleRecipient(ctx context.Context, userID uuid.UUID, msg *model.Message) (bool, error) {
	recipient := msg.Recipient
	if recipient.UserID != nil {
		return *recipient.UserID == userID, nil
	}

	switch recipient.Type {
	case model.RecipientTypeAdmin:
		isAdmin, err := s.authz.IsAdmin(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("failed to check admin role: %w", err)
		}
		return isAdmin, nil
	case model.RecipientTypeAllEmployees:
		isEmployee, err := s.authz.IsEmployee(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("failed to check employee role: %w", err)
		}
		if isEmployee {
			return true, nil
		}
		isAdmin, err := s.authz.IsAdmin(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("failed to check admin role: %w", err)
		}
		return isAdmin, nil
	default:
		return false, nil
	}
}
