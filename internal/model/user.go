package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the per-user account record. Identity is assigned by the
// hosted auth collaborator; we only store the profile row keyed by that id.
type Profile struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FullName     *string   `json:"full_name" db:"full_name"`
	Username     *string   `json:"username" db:"username"`
	Phone        *string   `json:"phone" db:"phone"`
	Address      *string   `json:"address" db:"address"`
	IsRestricted bool      `json:"is_restricted" db:"is_restricted"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName resolves the name shown in dashboards and notifications.
func (p *Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	return p.Email
}

// ProfileWithRoles is the admin user-management table row.
type ProfileWithRoles struct {
	Profile
	Roles []Role `json:"roles"`
}

// UpdateProfileRequest represents self-service profile update parameters
type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Username *string `json:"username" binding:"omitempty,min=3,max=32"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}
