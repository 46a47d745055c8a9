package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfillment axis of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// PaymentStatus is the independent payment axis.
type PaymentStatus string

const (
	PaymentStatusPending              PaymentStatus = "pending"
	PaymentStatusAwaitingVerification PaymentStatus = "awaiting_verification"
	PaymentStatusVerified             PaymentStatus = "verified"
	PaymentStatusRejected             PaymentStatus = "rejected"
)

// Payment methods
const (
	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
)

// Terminal reports whether no further fulfillment transition is legal.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:      {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusOutForDelivery: {OrderStatusDelivered, OrderStatusCancelled},
}

// CanTransition reports whether from -> to is a legal fulfillment move.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s names a known fulfillment status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a line-item snapshot taken at checkout. Name and unit
// price are copied so later product edits do not rewrite history.
type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	ImageURL  *string   `json:"image_url,omitempty"`
}

// OrderItems is stored as a JSONB column.
type OrderItems []OrderItem

func (i OrderItems) Value() (interface{}, error) { return json.Marshal(i) }

func (i *OrderItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, i)
	case string:
		return json.Unmarshal([]byte(v), i)
	case nil:
		*i = nil
		return nil
	default:
		return fmt.Errorf("unsupported order items type %T", src)
	}
}

// Order is a checkout result plus its fulfillment/payment lifecycle.
type Order struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	UserID           uuid.UUID     `json:"user_id" db:"user_id"`
	Items            OrderItems    `json:"items" db:"items"`
	TotalAmount      float64       `json:"total_amount" db:"total_amount"`
	DeliveryAddress  *string       `json:"delivery_address" db:"delivery_address"`
	Phone            *string       `json:"phone" db:"phone"`
	PaymentMethod    string        `json:"payment_method" db:"payment_method"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	TransactionID    *string       `json:"transaction_id" db:"transaction_id"`
	Status           OrderStatus   `json:"status" db:"status"`
	DeliveryPersonID *uuid.UUID    `json:"delivery_person_id" db:"delivery_person_id"`
	DeliveredAt      *time.Time    `json:"delivered_at" db:"delivered_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}
