package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
	"github.com/quickbite/storefront-api/internal/service/authz"
	"github.com/quickbite/storefront-api/internal/service/event"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
	"github.com/quickbite/storefront-api/pkg/logger"
)

// Service covers self-service profiles plus the admin-only user and
// role administration surface.
type Service struct {
	profileRepo repository.ProfileRepository
	roleRepo    repository.RoleRepository
	authz       *authz.Service
	emitter     event.Emitter
	logger      *logger.Logger
}

func NewService(
	profileRepo repository.ProfileRepository,
	roleRepo repository.RoleRepository,
	authzSvc *authz.Service,
	emitter event.Emitter,
	logger *logger.Logger,
) *Service {
	return &Service{
		profileRepo: profileRepo,
		roleRepo:    roleRepo,
		authz:       authzSvc,
		emitter:     emitter,
		logger:      logger,
	}
}

func (s *Service) GetProfile(ctx context.Context, session model.Session) (*model.Profile, error) {
	profile, err := s.profileRepo.Get(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("profile", err)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *Service) UpdateProfile(ctx context.Context, session model.Session, req *model.UpdateProfileRequest) (*model.Profile, error) {
	profile, err := s.GetProfile(ctx, session)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		profile.FullName = req.FullName
	}
	if req.Username != nil {
		profile.Username = req.Username
	}
	if req.Phone != nil {
		profile.Phone = req.Phone
	}
	if req.Address != nil {
		profile.Address = req.Address
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("profile", err)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// HandleSignup is invoked by the auth collaborator's webhook when a new
// identity is created: it materializes the profile row and fans a
// signup notification out to admins.
func (s *Service) HandleSignup(ctx context.Context, userID uuid.UUID, email string, fullName *string) (*model.Profile, error) {
	profile := &model.Profile{
		ID:       userID,
		Email:    email,
		FullName: fullName,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("profile already exists", err)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := s.emitter.Emit(ctx, model.EventUserSignedUp, model.UserSignedUpPayload{
		UserID:      profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName(),
	}); err != nil {
		s.logger.Error(err, "failed to emit signup event", "user_id", profile.ID.String())
	}

	return profile, nil
}

// ListUsers is the admin user-management table: every profile with its
// role grants attached.
func (s *Service) ListUsers(ctx context.Context, session model.Session) ([]*model.ProfileWithRoles, error) {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return nil, err
	}

	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	grants, err := s.roleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list role grants: %w", err)
	}

	byUser := make(map[uuid.UUID][]model.Role)
	for _, grant := range grants {
		byUser[grant.UserID] = append(byUser[grant.UserID], grant.Role)
	}

	users := make([]*model.ProfileWithRoles, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, &model.ProfileWithRoles{
			Profile: *p,
			Roles:   byUser[p.ID],
		})
	}
	return users, nil
}

// ListEmployees backs the "specific employee" recipient picker.
func (s *Service) ListEmployees(ctx context.Context, session model.Session) ([]*model.Profile, error) {
	if err := s.authz.RequireStaff(ctx, session); err != nil {
		return nil, err
	}
	ids, err := s.roleRepo.UsersWithRole(ctx, model.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return s.profileRepo.GetMany(ctx, ids)
}

// AssignRole grants a role. Admin-only; self-target always denied.
func (s *Service) AssignRole(ctx context.Context, session model.Session, userID uuid.UUID, role model.Role) error {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return err
	}
	if userID == session.UserID {
		return apperrors.AccessDenied("you cannot modify your own roles")
	}
	if !role.Valid() {
		return apperrors.Validation("unknown role")
	}

	if _, err := s.profileRepo.Get(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.roleRepo.Assign(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("user already has this role", err)
		}
		return fmt.Errorf("failed to assign role: %w", err)
	}

	s.authz.Invalidate(userID)
	return nil
}

// RemoveRole revokes a role. Admin-only, self-target denied, and the
// admin role itself can never be revoked through this path.
func (s *Service) RemoveRole(ctx context.Context, session model.Session, userID uuid.UUID, role model.Role) error {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return err
	}
	if userID == session.UserID {
		return apperrors.AccessDenied("you cannot modify your own roles")
	}
	if role == model.RoleAdmin {
		return apperrors.AccessDenied("admin role cannot be removed")
	}
	if !role.Valid() {
		return apperrors.Validation("unknown role")
	}

	if err := s.roleRepo.Remove(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("role grant", err)
		}
		return fmt.Errorf("failed to remove role: %w", err)
	}

	s.authz.Invalidate(userID)
	return nil
}

// ToggleRestriction flips the restriction flag. Admin-only, self-target
// denied.
func (s *Service) ToggleRestriction(ctx context.Context, session model.Session, userID uuid.UUID) (*model.Profile, error) {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return nil, err
	}
	if userID == session.UserID {
		return nil, apperrors.AccessDenied("you cannot restrict yourself")
	}

	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.profileRepo.SetRestricted(ctx, userID, !profile.IsRestricted); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to toggle restriction: %w", err)
	}
	profile.IsRestricted = !profile.IsRestricted
	return profile, nil
}

// DeleteUser removes the account. Role grants go first, inside the same
// transaction, so no grant ever outlives its profile.
func (s *Service) DeleteUser(ctx context.Context, session model.Session, userID uuid.UUID) error {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return err
	}
	if userID == session.UserID {
		return apperrors.AccessDenied("you cannot delete yourself")
	}

	if err := s.profileRepo.DeleteTx(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.authz.Invalidate(userID)
	return nil
}
