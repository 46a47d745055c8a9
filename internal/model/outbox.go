package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Domain event types carried through the outbox.
const (
	EventOrderCreated    = "order.created"
	EventPaymentVerified = "order.payment_verified"
	EventPaymentRejected = "order.payment_rejected"
	EventOrderDelivered  = "order.delivered"
	EventMessageReplied  = "message.replied"
	EventUserSignedUp    = "user.signed_up"
)

// OrderEventPayload travels with every order.* event.
type OrderEventPayload struct {
	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID *string   `json:"transaction_id,omitempty"`
}

// MessageRepliedPayload travels with message.replied events.
type MessageRepliedPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Subject   string    `json:"subject"`
}

// UserSignedUpPayload travels with user.signed_up events.
type UserSignedUpPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
}

// OutboxEvent is a pending domain event awaiting fan-out. The notifier
// worker turns these into notification rows and change-feed publishes.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
