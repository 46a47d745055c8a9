package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
)

const (
	roleCacheTTL     = 30 * time.Second
	roleCacheCleanup = 5 * time.Minute
)

// Service is the role store plus the authorization guard. Role lookups
// are cached per user for a short window; grants and revokes go through
// the user-administration service, which invalidates the entry.
type Service struct {
	repo  repository.RoleRepository
	cache *cache.Cache
}

func NewService(repo repository.RoleRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(roleCacheTTL, roleCacheCleanup),
	}
}

// Roles returns every role the user holds. An empty slice means the
// default customer capability level.
func (s *Service) Roles(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	key := userID.String()
	if cached, found := s.cache.Get(key); found {
		return cached.([]model.Role), nil
	}

	roles, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	s.cache.Set(key, roles, cache.DefaultExpiration)
	return roles, nil
}

func (s *Service) HasRole(ctx context.Context, userID uuid.UUID, role model.Role) (bool, error) {
	roles, err := s.Roles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.HasRole(ctx, userID, model.RoleAdmin)
}

func (s *Service) IsEmployee(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.HasRole(ctx, userID, model.RoleEmployee)
}

func (s *Service) IsDelivery(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.HasRole(ctx, userID, model.RoleDelivery)
}

// IsStaff reports whether the user holds any of admin, employee or
// delivery, the union used to gate the shared dashboards.
func (s *Service) IsStaff(ctx context.Context, userID uuid.UUID) (bool, error) {
	roles, err := s.Roles(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(roles) > 0, nil
}

// Require returns AccessDenied unless the session holds at least one of
// the given roles. It performs no writes, so a denial never leaves a
// partial mutation behind.
func (s *Service) Require(ctx context.Context, session model.Session, roles ...model.Role) error {
	held, err := s.Roles(ctx, session.UserID)
	if err != nil {
		return apperrors.Unavailable(err)
	}
	for _, want := range roles {
		for _, have := range held {
			if have == want {
				return nil
			}
		}
	}
	return apperrors.AccessDenied("")
}

func (s *Service) RequireAdmin(ctx context.Context, session model.Session) error {
	return s.Require(ctx, session, model.RoleAdmin)
}

func (s *Service) RequireStaff(ctx context.Context, session model.Session) error {
	return s.Require(ctx, session, model.RoleAdmin, model.RoleEmployee, model.RoleDelivery)
}

// Invalidate drops the cached roles for a user after a grant change.
func (s *Service) Invalidate(userID uuid.UUID) {
	s.cache.Delete(userID.String())
}
