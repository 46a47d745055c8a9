package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecipientType is the wire tag of a message target.
type RecipientType string

const (
	// RecipientTypeAdmin targets all admins when RecipientID is absent,
	// or one specific admin when it is set.
	RecipientTypeAdmin        RecipientType = "admin"
	RecipientTypeAllEmployees RecipientType = "all_employees"
	RecipientTypeEmployee     RecipientType = "employee"
	RecipientTypeUser         RecipientType = "user"
)

// Recipient is a tagged union over message targets: a broadcast class
// (all admins, all employees) or a single addressed user. The
// required/forbidden RecipientID invariant lives in Validate.
type Recipient struct {
	Type   RecipientType `json:"recipient_type" db:"recipient_type"`
	UserID *uuid.UUID    `json:"recipient_id,omitempty" db:"recipient_id"`
}

func AllAdmins() Recipient    { return Recipient{Type: RecipientTypeAdmin} }
func AllEmployees() Recipient { return Recipient{Type: RecipientTypeAllEmployees} }

func SpecificAdmin(id uuid.UUID) Recipient {
	return Recipient{Type: RecipientTypeAdmin, UserID: &id}
}

func SpecificEmployee(id uuid.UUID) Recipient {
	return Recipient{Type: RecipientTypeEmployee, UserID: &id}
}

func SpecificUser(id uuid.UUID) Recipient {
	return Recipient{Type: RecipientTypeUser, UserID: &id}
}

// Broadcast reports whether the recipient resolves to a role-qualified
// set of users rather than one fixed identity.
func (r Recipient) Broadcast() bool {
	switch r.Type {
	case RecipientTypeAllEmployees:
		return true
	case RecipientTypeAdmin:
		return r.UserID == nil
	}
	return false
}

// Validate enforces the presence/absence rule for RecipientID.
func (r Recipient) Validate() error {
	switch r.Type {
	case RecipientTypeAdmin:
		// Valid with or without an id: broadcast vs specific admin.
		return nil
	case RecipientTypeAllEmployees:
		if r.UserID != nil {
			return fmt.Errorf("recipient_id must be absent for %s", r.Type)
		}
		return nil
	case RecipientTypeEmployee, RecipientTypeUser:
		if r.UserID == nil {
			return fmt.Errorf("recipient_id is required for %s", r.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown recipient type: %q", r.Type)
	}
}

// Message is a directed message from an authenticated sender to a
// recipient target. At most one reply; replying is a one-time transition.
type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SenderID  uuid.UUID `json:"sender_id" db:"sender_id"`
	Subject   string    `json:"subject" db:"subject"`
	Body      string    `json:"body" db:"body"`
	Recipient Recipient `json:"recipient"`

	Reply     *string    `json:"reply" db:"reply"`
	RepliedBy *uuid.UUID `json:"replied_by" db:"replied_by"`
	RepliedAt *time.Time `json:"replied_at" db:"replied_at"`

	// IsRead is the sender-side flag: has the sender seen the reply.
	// Reset to false whenever a reply lands.
	IsRead bool `json:"is_read" db:"is_read"`
	// RecipientRead is the recipient-side flag: has anyone in the
	// recipient set opened the message.
	RecipientRead bool `json:"recipient_read" db:"recipient_read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Replied reports whether the one-shot reply transition has happened.
func (m *Message) Replied() bool { return m.Reply != nil }

// InboxMessage is a received message annotated for display.
type InboxMessage struct {
	Message
	SenderName string `json:"sender_name" db:"sender_name"`
}

// SentMessage is an authored message annotated with the resolved
// recipient display name and role.
type SentMessage struct {
	Message
	RecipientName string `json:"recipient_name" db:"recipient_name"`
}
