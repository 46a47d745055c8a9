package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository/repositorytest"
	"github.com/quickbite/storefront-api/internal/service/authz"
	"github.com/quickbite/storefront-api/internal/service/event"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
	"github.com/quickbite/storefront-api/pkg/logger"
)

type fixture struct {
	svc      *Service
	profiles *repositorytest.ProfileRepo
	roles    *repositorytest.RoleRepo
	authz    *authz.Service
	outbox   *repositorytest.OutboxRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	profiles := repositorytest.NewProfileRepo()
	roles := repositorytest.NewRoleRepo()
	profiles.Roles = roles
	outbox := repositorytest.NewOutboxRepo()
	authzSvc := authz.NewService(roles)
	svc := NewService(profiles, roles, authzSvc, event.NewService(outbox), logger.NewLogger(nil))
	return &fixture{svc: svc, profiles: profiles, roles: roles, authz: authzSvc, outbox: outbox}
}

func (f *fixture) user(email string, roles ...model.Role) model.Session {
	id := uuid.New()
	f.profiles.Seed(&model.Profile{ID: id, Email: email})
	f.roles.Seed(id, roles...)
	return model.Session{UserID: id, Email: email}
}

func TestUpdateProfilePartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	phone := "555-0101"
	id := uuid.New()
	f.profiles.Seed(&model.Profile{ID: id, Email: "me@example.com", Phone: &phone})
	session := model.Session{UserID: id, Email: "me@example.com"}

	name := "Dana Smith"
	updated, err := f.svc.UpdateProfile(ctx, session, &model.UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)

	// Untouched fields survive a partial update.
	assert.Equal(t, "Dana Smith", *updated.FullName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
}

func TestHandleSignup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := uuid.New()
	name := "New Customer"
	profile, err := f.svc.HandleSignup(ctx, id, "new@example.com", &name)
	require.NoError(t, err)
	assert.Equal(t, id, profile.ID)

	// Webhook retries must not create duplicates.
	_, err = f.svc.HandleSignup(ctx, id, "new@example.com", &name)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))

	assert.Equal(t, []string{model.EventUserSignedUp}, f.outbox.EventTypes())
}

func TestAssignRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)
	customer := f.user("customer@example.com")

	err := f.svc.AssignRole(ctx, admin, customer.UserID, model.RoleEmployee)
	require.NoError(t, err)

	held, err := f.authz.Roles(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, []model.Role{model.RoleEmployee}, held)

	// A repeated grant is a conflict.
	err = f.svc.AssignRole(ctx, admin, customer.UserID, model.RoleEmployee)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))

	err = f.svc.AssignRole(ctx, admin, customer.UserID, "superuser")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	err = f.svc.AssignRole(ctx, admin, uuid.New(), model.RoleEmployee)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	// Admins never modify their own grants.
	err = f.svc.AssignRole(ctx, admin, admin.UserID, model.RoleEmployee)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	// Non-admins cannot grant at all.
	err = f.svc.AssignRole(ctx, customer, admin.UserID, model.RoleDelivery)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))
}

func TestRemoveRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)
	other := f.user("other@example.com", model.RoleAdmin, model.RoleEmployee)

	err := f.svc.RemoveRole(ctx, admin, other.UserID, model.RoleEmployee)
	require.NoError(t, err)

	// The admin role is irrevocable, even on another admin.
	err = f.svc.RemoveRole(ctx, admin, other.UserID, model.RoleAdmin)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	err = f.svc.RemoveRole(ctx, admin, admin.UserID, model.RoleEmployee)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	// Removing a grant the user does not hold.
	err = f.svc.RemoveRole(ctx, admin, other.UserID, model.RoleDelivery)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	held, err := f.authz.Roles(ctx, other.UserID)
	require.NoError(t, err)
	assert.Equal(t, []model.Role{model.RoleAdmin}, held)
}

func TestToggleRestriction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)
	customer := f.user("customer@example.com")

	profile, err := f.svc.ToggleRestriction(ctx, admin, customer.UserID)
	require.NoError(t, err)
	assert.True(t, profile.IsRestricted)

	profile, err = f.svc.ToggleRestriction(ctx, admin, customer.UserID)
	require.NoError(t, err)
	assert.False(t, profile.IsRestricted)

	_, err = f.svc.ToggleRestriction(ctx, admin, admin.UserID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	_, err = f.svc.ToggleRestriction(ctx, admin, uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)
	employee := f.user("employee@example.com", model.RoleEmployee)

	err := f.svc.DeleteUser(ctx, admin, admin.UserID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	err = f.svc.DeleteUser(ctx, admin, employee.UserID)
	require.NoError(t, err)

	_, err = f.profiles.Get(ctx, employee.UserID)
	assert.Error(t, err)

	// Grants never outlive the profile.
	held, err := f.roles.ListForUser(ctx, employee.UserID)
	require.NoError(t, err)
	assert.Empty(t, held)

	err = f.svc.DeleteUser(ctx, admin, employee.UserID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)
	f.user("customer@example.com")
	employee := f.user("employee@example.com", model.RoleEmployee)

	users, err := f.svc.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 3)

	byEmail := make(map[string][]model.Role)
	for _, u := range users {
		byEmail[u.Email] = u.Roles
	}
	assert.Equal(t, []model.Role{model.RoleAdmin}, byEmail["admin@example.com"])
	assert.Empty(t, byEmail["customer@example.com"])
	assert.Equal(t, []model.Role{model.RoleEmployee}, byEmail["employee@example.com"])

	_, err = f.svc.ListUsers(ctx, model.Session{UserID: employee.UserID})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))
}

func TestListEmployees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)
	employee := f.user("employee@example.com", model.RoleEmployee)
	customer := f.user("customer@example.com")

	employees, err := f.svc.ListEmployees(ctx, admin)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, employee.UserID, employees[0].ID)

	_, err = f.svc.ListEmployees(ctx, customer)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))
}
