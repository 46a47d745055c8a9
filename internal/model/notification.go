package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies the triggering event class.
type NotificationType string

const (
	NotificationNewOrder            NotificationType = "new_order"
	NotificationPaymentVerification NotificationType = "payment_verification"
	NotificationPaymentVerified     NotificationType = "payment_verified"
	NotificationPaymentRejected     NotificationType = "payment_rejected"
	NotificationMessageReply        NotificationType = "message_reply"
	NotificationNewUserSignup       NotificationType = "new_user_signup"
	NotificationDeliveryCompleted   NotificationType = "delivery_completed"
)

// Notification is a derived record written only by the fan-out; users
// never create these directly. The recipient flips the read flag, nothing
// else mutates the row.
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Data      json.RawMessage  `json:"data" db:"data"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
