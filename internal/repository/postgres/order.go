package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
)

const orderColumns = `id, user_id, items, total_amount, delivery_address, phone, payment_method, payment_status, transaction_id, status, delivery_person_id, delivered_at, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, items, total_amount, delivery_address, phone, payment_method, payment_status, transaction_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		items,
		order.TotalAmount,
		order.DeliveryAddress,
		order.Phone,
		order.PaymentMethod,
		order.PaymentStatus,
		order.TransactionID,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	var order model.Order
	err := r.db.GetContext(ctx, &order, query, id)
	if err != nil {
		if translated := translateErr(err); translated == repository.ErrNotFound {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, orderColumns)

	var orders []*model.Order
	err := r.db.SelectContext(ctx, &orders, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders ORDER BY created_at DESC`, orderColumns)

	var orders []*model.Order
	err := r.db.SelectContext(ctx, &orders, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) ListForDeliveryPerson(ctx context.Context, deliveryPersonID uuid.UUID) ([]*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE delivery_person_id = $1 ORDER BY created_at DESC`, orderColumns)

	var orders []*model.Order
	err := r.db.SelectContext(ctx, &orders, query, deliveryPersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) ListAwaitingVerification(ctx context.Context) ([]*model.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE payment_method = $1
		ORDER BY created_at DESC
	`, orderColumns)

	var orders []*model.Order
	err := r.db.SelectContext(ctx, &orders, query, model.PaymentMethodBankTransfer)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment verification queue: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, deliveredAt *time.Time) error {
	query := `
		UPDATE orders
		SET status = $1, delivered_at = COALESCE($2, delivered_at), updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, status, deliveredAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *orderRepository) UpdatePayment(ctx context.Context, id uuid.UUID, payment model.PaymentStatus, status model.OrderStatus) error {
	// One statement for both axes: a rejected payment and the forced
	// cancellation must land together.
	query := `
		UPDATE orders
		SET payment_status = $1, status = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, payment, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *orderRepository) AssignDelivery(ctx context.Context, id, deliveryPersonID uuid.UUID) error {
	query := `
		UPDATE orders
		SET delivery_person_id = $1, status = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, deliveryPersonID, model.OrderStatusOutForDelivery, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to assign delivery person: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}
