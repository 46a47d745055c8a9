package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/model"
)

// All repository interfaces in one file
type (
	// ProfileRepository handles per-user account records
	ProfileRepository interface {
		Create(ctx context.Context, profile *model.Profile) error
		Get(ctx context.Context, id uuid.UUID) (*model.Profile, error)
		GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Profile, error)
		Update(ctx context.Context, profile *model.Profile) error
		SetRestricted(ctx context.Context, id uuid.UUID, restricted bool) error
		List(ctx context.Context) ([]*model.Profile, error)
		// DeleteTx removes the profile after its role grants inside one
		// transaction, so grants never outlive the profile.
		DeleteTx(ctx context.Context, id uuid.UUID) error
	}

	// RoleRepository is the role store behind the authorization guard
	RoleRepository interface {
		Assign(ctx context.Context, userID uuid.UUID, role model.Role) error
		Remove(ctx context.Context, userID uuid.UUID, role model.Role) error
		ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Role, error)
		ListAll(ctx context.Context) ([]*model.RoleGrant, error)
		// UsersWithRole resolves a broadcast class into user ids.
		UsersWithRole(ctx context.Context, role model.Role) ([]uuid.UUID, error)
	}

	MessageRepository interface {
		Create(ctx context.Context, msg *model.Message) error
		Get(ctx context.Context, id uuid.UUID) (*model.Message, error)
		// ListInbox returns messages addressed to the user directly plus
		// broadcasts for any of the given roles, newest first.
		ListInbox(ctx context.Context, userID uuid.UUID, roles []model.Role) ([]*model.InboxMessage, error)
		ListSent(ctx context.Context, senderID uuid.UUID) ([]*model.SentMessage, error)
		// SetReply is a conditional write: it succeeds only while the
		// message has no reply, so the first writer wins.
		SetReply(ctx context.Context, id uuid.UUID, reply string, repliedBy uuid.UUID, repliedAt time.Time) error
		MarkRead(ctx context.Context, id uuid.UUID) error
		MarkRecipientRead(ctx context.Context, id uuid.UUID) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	NotificationRepository interface {
		CreateBatch(ctx context.Context, notifications []*model.Notification) error
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
		CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
		MarkRead(ctx context.Context, id, userID uuid.UUID) error
		DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	OrderRepository interface {
		Create(ctx context.Context, order *model.Order) error
		Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Order, error)
		ListAll(ctx context.Context) ([]*model.Order, error)
		ListForDeliveryPerson(ctx context.Context, deliveryPersonID uuid.UUID) ([]*model.Order, error)
		ListAwaitingVerification(ctx context.Context) ([]*model.Order, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, deliveredAt *time.Time) error
		// UpdatePayment sets both axes in one statement so a rejected
		// payment and the forced cancellation land together.
		UpdatePayment(ctx context.Context, id uuid.UUID, payment model.PaymentStatus, status model.OrderStatus) error
		AssignDelivery(ctx context.Context, id, deliveryPersonID uuid.UUID) error
	}

	ProductRepository interface {
		Create(ctx context.Context, product *model.Product) error
		Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
		Update(ctx context.Context, product *model.Product) error
		Delete(ctx context.Context, id uuid.UUID) error
		SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
		List(ctx context.Context, onlyAvailable bool, category string) ([]*model.Product, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string, processedAt *time.Time) error
	}
)

// Sentinel errors surfaced by implementations so services can translate
// them into the API error kinds.
var (
	ErrNotFound       = Error("not found")
	ErrDuplicate      = Error("duplicate row")
	ErrAlreadyReplied = Error("already replied")
)

type Error string

func (e Error) Error() string { return string(e) }
