package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
)

func (r *roleRepository) Assign(ctx context.Context, userID uuid.UUID, role model.Role) error {
	query := `
		INSERT INTO user_roles (id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, uuid.New(), userID, role, time.Now())
	if err != nil {
		if translated := translateErr(err); translated == repository.ErrDuplicate {
			return translated
		}
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

func (r *roleRepository) Remove(ctx context.Context, userID uuid.UUID, role model.Role) error {
	query := `
		DELETE FROM user_roles
		WHERE user_id = $1 AND role = $2
	`
	result, err := r.db.ExecContext(ctx, query, userID, role)
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
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

func (r *roleRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	query := `
		SELECT role
		FROM user_roles
		WHERE user_id = $1
		ORDER BY role ASC
	`
	var roles []model.Role
	err := r.db.SelectContext(ctx, &roles, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user roles: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]*model.RoleGrant, error) {
	query := `
		SELECT id, user_id, role, created_at
		FROM user_roles
		ORDER BY created_at DESC
	`
	var grants []*model.RoleGrant
	err := r.db.SelectContext(ctx, &grants, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list role grants: %w", err)
	}
	return grants, nil
}

func (r *roleRepository) UsersWithRole(ctx context.Context, role model.Role) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM user_roles
		WHERE role = $1
	`
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with role: %w", err)
	}
	return ids, nil
}
