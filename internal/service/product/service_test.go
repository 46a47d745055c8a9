package product

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository/repositorytest"
	"github.com/quickbite/storefront-api/internal/service/authz"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
	"github.com/quickbite/storefront-api/pkg/feed"
	"github.com/quickbite/storefront-api/pkg/logger"
)

type memoryBroker struct {
	mu        sync.Mutex
	published map[string]int
}

func newMemoryBroker() *memoryBroker {
	return &memoryBroker{published: make(map[string]int)}
}

func (b *memoryBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if _, err := json.Marshal(message); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel]++
	return nil
}

func (b *memoryBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (b *memoryBroker) Close() error { return nil }

type fixture struct {
	svc      *Service
	products *repositorytest.ProductRepo
	roles    *repositorytest.RoleRepo
	broker   *memoryBroker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := repositorytest.NewProductRepo()
	roles := repositorytest.NewRoleRepo()
	broker := newMemoryBroker()
	svc := NewService(products, authz.NewService(roles), feed.New(broker), logger.NewLogger(nil))
	return &fixture{svc: svc, products: products, roles: roles, broker: broker}
}

func (f *fixture) admin() model.Session {
	id := uuid.New()
	f.roles.Seed(id, model.RoleAdmin)
	return model.Session{UserID: id}
}

func TestCatalogShowsOnlyAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.products.Seed(&model.Product{Name: "burger", Price: 8.5, Category: model.CategoryBurger, IsAvailable: true})
	f.products.Seed(&model.Product{Name: "cola", Price: 2.0, Category: model.CategoryDrink, IsAvailable: true})
	f.products.Seed(&model.Product{Name: "special", Price: 15.0, Category: model.CategoryBurger, IsAvailable: false})

	catalog, err := f.svc.Catalog(ctx, "")
	require.NoError(t, err)
	assert.Len(t, catalog, 2)

	burgers, err := f.svc.Catalog(ctx, model.CategoryBurger)
	require.NoError(t, err)
	require.Len(t, burgers, 1)
	assert.Equal(t, "burger", burgers[0].Name)

	// The admin table sees the hidden product too.
	all, err := f.svc.ListAll(ctx, f.admin())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin()

	err := f.svc.Create(ctx, admin, &model.Product{Price: 5.0})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	err = f.svc.Create(ctx, admin, &model.Product{Name: "free burger", Price: 0})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	p := &model.Product{Name: "burger", Price: 8.5}
	require.NoError(t, f.svc.Create(ctx, admin, p))
	assert.Equal(t, model.CategoryOther, p.Category)
	assert.Equal(t, 1, f.broker.published["feed.products"])
}

func TestCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Create(ctx, model.Session{UserID: uuid.New()}, &model.Product{Name: "burger", Price: 8.5})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))
}

func TestToggleAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin()

	p := &model.Product{Name: "burger", Price: 8.5, IsAvailable: true}
	f.products.Seed(p)

	toggled, err := f.svc.ToggleAvailability(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsAvailable)

	toggled, err = f.svc.ToggleAvailability(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsAvailable)

	_, err = f.svc.ToggleAvailability(ctx, admin, uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin()

	p := &model.Product{Name: "burger", Price: 8.5}
	f.products.Seed(p)

	require.NoError(t, f.svc.Delete(ctx, admin, p.ID))

	err := f.svc.Delete(ctx, admin, p.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}
