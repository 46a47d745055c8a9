package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a named capability level a user can hold. Absence of any grant
// means the default customer ("user") capability level.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleDelivery Role = "delivery"
)

// Valid reports whether r is a grantable role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleDelivery:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// RoleGrant is one (user, role) pair. A user may hold several grants.
type RoleGrant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
