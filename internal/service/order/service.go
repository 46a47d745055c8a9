package order

import (
	"context"
	"errors"
	"fmt"
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
	repo        repository.OrderRepository
	productRepo repository.ProductRepository
	profileRepo repository.ProfileRepository
	authz       *authz.Service
	emitter     event.Emitter
	logger      *logger.Logger
}

func NewService(
	repo repository.OrderRepository,
	productRepo repository.ProductRepository,
	profileRepo repository.ProfileRepository,
	authzSvc *authz.Service,
	emitter event.Emitter,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		productRepo: productRepo,
		profileRepo: profileRepo,
		authz:       authzSvc,
		emitter:     emitter,
		logger:      logger,
	}
}

// CheckoutItem is one cart line at checkout time.
type CheckoutItem struct {
	ProductID uuid.UUID
	Quantity  int
}

type CheckoutInput struct {
	Items           []CheckoutItem
	DeliveryAddress string
	Phone           string
	PaymentMethod   string
	TransactionID   *string
}

// Checkout creates an order with line-item snapshots. Bank-transfer
// payments start awaiting verification; cash on delivery starts
// pending and is settled on fulfillment.
func (s *Service) Checkout(ctx context.Context, session model.Session, input CheckoutInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.Validation("order has no items")
	}
	switch input.PaymentMethod {
	case model.PaymentMethodCOD:
	case model.PaymentMethodBankTransfer:
		if input.TransactionID == nil || *input.TransactionID == "" {
			return nil, apperrors.Validation("transaction id is required for bank transfer")
		}
	default:
		return nil, apperrors.Validation("unknown payment method")
	}

	profile, err := s.profileRepo.Get(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("profile", err)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.IsRestricted {
		return nil, apperrors.AccessDenied("account is restricted")
	}

	var items model.OrderItems
	var total float64
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, apperrors.Validation("item quantity must be positive")
		}
		product, err := s.productRepo.Get(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("product", err)
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if !product.IsAvailable {
			return nil, apperrors.Validation(fmt.Sprintf("product %s is not available", product.Name))
		}
		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			ImageURL:  product.ImageURL,
		})
		total += product.Price * float64(line.Quantity)
	}

	paymentStatus := model.PaymentStatusPending
	if input.PaymentMethod == model.PaymentMethodBankTransfer {
		paymentStatus = model.PaymentStatusAwaitingVerification
	}

	order := &model.Order{
		ID:              uuid.New(),
		UserID:          session.UserID,
		Items:           items,
		TotalAmount:     total,
		DeliveryAddress: &input.DeliveryAddress,
		Phone:           &input.Phone,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   paymentStatus,
		TransactionID:   input.TransactionID,
		Status:          model.OrderStatusPending,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Admin fan-out must not fail the checkout.
	if err := s.emitter.Emit(ctx, model.EventOrderCreated, orderPayload(order)); err != nil {
		s.logger.Error(err, "failed to emit order created event", "order_id", order.ID.String())
	}

	return order, nil
}

func (s *Service) Get(ctx context.Context, session model.Session, id uuid.UUID) (*model.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.UserID == session.UserID {
		return order, nil
	}
	if err := s.authz.RequireStaff(ctx, session); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) ListMine(ctx context.Context, session model.Session) ([]*model.Order, error) {
	return s.repo.ListForUser(ctx, session.UserID)
}

func (s *Service) ListAll(ctx context.Context, session model.Session) ([]*model.Order, error) {
	if err := s.authz.Require(ctx, session, model.RoleAdmin, model.RoleEmployee); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx)
}

// ListAssigned is the delivery dashboard: orders assigned to the
// session's delivery person.
func (s *Service) ListAssigned(ctx context.Context, session model.Session) ([]*model.Order, error) {
	if err := s.authz.Require(ctx, session, model.RoleDelivery); err != nil {
		return nil, err
	}
	return s.repo.ListForDeliveryPerson(ctx, session.UserID)
}

// ListPaymentQueue is the admin verification queue for bank transfers.
func (s *Service) ListPaymentQueue(ctx context.Context, session model.Session) ([]*model.Order, error) {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return nil, err
	}
	return s.repo.ListAwaitingVerification(ctx)
}

// UpdateStatus advances the fulfillment state machine. Admin and
// employee may perform any legal transition; a delivery actor may only
// complete the final hop on an order assigned to them.
func (s *Service) UpdateStatus(ctx context.Context, session model.Session, id uuid.UUID, next model.OrderStatus) (*model.Order, error) {
	if !model.ValidOrderStatus(next) {
		return nil, apperrors.Validation("unknown order status")
	}
	if err := s.authz.RequireStaff(ctx, session); err != nil {
		return nil, err
	}

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	roles, err := s.authz.Roles(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if onlyDelivery(roles) {
		if order.DeliveryPersonID == nil || *order.DeliveryPersonID != session.UserID {
			return nil, apperrors.AccessDenied("order is not assigned to you")
		}
		if next != model.OrderStatusDelivered {
			return nil, apperrors.AccessDenied("delivery can only mark orders delivered")
		}
	}

	if !model.CanTransition(order.Status, next) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move order from %s to %s", order.Status, next), nil)
	}

	var deliveredAt *time.Time
	if next == model.OrderStatusDelivered {
		now := time.Now()
		deliveredAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, next, deliveredAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = next
	order.DeliveredAt = deliveredAt

	if next == model.OrderStatusDelivered {
		if err := s.emitter.Emit(ctx, model.EventOrderDelivered, orderPayload(order)); err != nil {
			s.logger.Error(err, "failed to emit delivery event", "order_id", order.ID.String())
		}
	}

	return order, nil
}

// VerifyPayment settles a bank-transfer payment. Verification confirms
// the order; rejection forces cancellation in the same write.
func (s *Service) VerifyPayment(ctx context.Context, session model.Session, id uuid.UUID, verified bool) (*model.Order, error) {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return nil, err
	}

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.PaymentMethod != model.PaymentMethodBankTransfer {
		return nil, apperrors.Validation("order is not awaiting manual verification")
	}
	if order.PaymentStatus != model.PaymentStatusAwaitingVerification {
		return nil, apperrors.Conflict("payment already settled", nil)
	}

	payment := model.PaymentStatusVerified
	status := model.OrderStatusConfirmed
	eventType := model.EventPaymentVerified
	if !verified {
		payment = model.PaymentStatusRejected
		status = model.OrderStatusCancelled
		eventType = model.EventPaymentRejected
	}

	if err := s.repo.UpdatePayment(ctx, id, payment, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	order.PaymentStatus = payment
	order.Status = status

	if err := s.emitter.Emit(ctx, eventType, orderPayload(order)); err != nil {
		s.logger.Error(err, "failed to emit payment event", "order_id", order.ID.String())
	}

	return order, nil
}

// AssignDelivery hands the order to a delivery person and moves it out
// for delivery.
func (s *Service) AssignDelivery(ctx context.Context, session model.Session, id, deliveryPersonID uuid.UUID) (*model.Order, error) {
	if err := s.authz.Require(ctx, session, model.RoleAdmin, model.RoleEmployee); err != nil {
		return nil, err
	}

	isDelivery, err := s.authz.IsDelivery(ctx, deliveryPersonID)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if !isDelivery {
		return nil, apperrors.Validation("assignee does not hold the delivery role")
	}

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.Status.Terminal() {
		return nil, apperrors.Conflict("order is already settled", nil)
	}

	if err := s.repo.AssignDelivery(ctx, id, deliveryPersonID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to assign delivery: %w", err)
	}

	order.DeliveryPersonID = &deliveryPersonID
	order.Status = model.OrderStatusOutForDelivery
	return order, nil
}

func onlyDelivery(roles []model.Role) bool {
	hasDelivery := false
	for _, r := range roles {
		switch r {
		case model.RoleAdmin, model.RoleEmployee:
			return false
		case model.RoleDelivery:
			hasDelivery = true
		}
	}
	return hasDelivery
}

func orderPayload(order *model.Order) model.OrderEventPayload {
	return model.OrderEventPayload{
		OrderID:       order.ID,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		TransactionID: order.TransactionID,
	}
}
