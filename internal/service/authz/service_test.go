package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository/repositorytest"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
)

func TestRolesCached(t *testing.T) {
	repo := repositorytest.NewRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	userID := uuid.New()
	repo.Seed(userID, model.RoleEmployee)

	roles, err := svc.Roles(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []model.Role{model.RoleEmployee}, roles)

	// A grant made behind the cache is not visible until invalidation.
	require.NoError(t, repo.Assign(ctx, userID, model.RoleDelivery))

	roles, err = svc.Roles(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	svc.Invalidate(userID)

	roles, err = svc.Roles(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestHasRole(t *testing.T) {
	repo := repositorytest.NewRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	admin := uuid.New()
	customer := uuid.New()
	repo.Seed(admin, model.RoleAdmin)

	ok, err := svc.IsAdmin(ctx, admin)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsEmployee(ctx, admin)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsStaff(ctx, customer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequire(t *testing.T) {
	repo := repositorytest.NewRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	employee := uuid.New()
	customer := uuid.New()
	repo.Seed(employee, model.RoleEmployee)

	err := svc.RequireStaff(ctx, model.Session{UserID: employee})
	assert.NoError(t, err)

	err = svc.RequireAdmin(ctx, model.Session{UserID: employee})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	err = svc.RequireStaff(ctx, model.Session{UserID: customer})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))
}
