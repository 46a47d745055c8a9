package order

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
	orders   *repositorytest.OrderRepo
	products *repositorytest.ProductRepo
	profiles *repositorytest.ProfileRepo
	roles    *repositorytest.RoleRepo
	outbox   *repositorytest.OutboxRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orders := repositorytest.NewOrderRepo()
	products := repositorytest.NewProductRepo()
	profiles := repositorytest.NewProfileRepo()
	roles := repositorytest.NewRoleRepo()
	outbox := repositorytest.NewOutboxRepo()
	svc := NewService(
		orders,
		products,
		profiles,
		authz.NewService(roles),
		event.NewService(outbox),
		logger.NewLogger(nil),
	)
	return &fixture{svc: svc, orders: orders, products: products, profiles: profiles, roles: roles, outbox: outbox}
}

func (f *fixture) user(email string, roles ...model.Role) model.Session {
	id := uuid.New()
	f.profiles.Seed(&model.Profile{ID: id, Email: email})
	f.roles.Seed(id, roles...)
	return model.Session{UserID: id, Email: email}
}

func (f *fixture) product(name string, price float64, available bool) *model.Product {
	p := &model.Product{ID: uuid.New(), Name: name, Price: price, Category: model.CategoryBurger, IsAvailable: available}
	f.products.Seed(p)
	return p
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := f.user("customer@example.com")
	burger := f.product("smash burger", 8.5, true)
	fries := f.product("fries", 3.0, true)

	order, err := f.svc.Checkout(ctx, customer, CheckoutInput{
		Items: []CheckoutItem{
			{ProductID: burger.ID, Quantity: 2},
			{ProductID: fries.ID, Quantity: 1},
		},
		DeliveryAddress: "12 Main St",
		Phone:           "555-0101",
		PaymentMethod:   model.PaymentMethodCOD,
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.InDelta(t, 20.0, order.TotalAmount, 0.001)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "smash burger", order.Items[0].Name)
	assert.InDelta(t, 8.5, order.Items[0].UnitPrice, 0.001)

	// Later price edits must not rewrite the snapshot.
	burger.Price = 12.0
	require.NoError(t, f.products.Update(ctx, burger))

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 8.5, stored.Items[0].UnitPrice, 0.001)
	assert.InDelta(t, 20.0, stored.TotalAmount, 0.001)

	assert.Equal(t, []string{model.EventOrderCreated}, f.outbox.EventTypes())
}

func TestCheckoutBankTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := f.user("customer@example.com")
	burger := f.product("burger", 8.5, true)

	// Bank transfer without a transaction id is rejected.
	_, err := f.svc.Checkout(ctx, customer, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: burger.ID, Quantity: 1}},
		PaymentMethod: model.PaymentMethodBankTransfer,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	txn := "TXN-123"
	order, err := f.svc.Checkout(ctx, customer, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: burger.ID, Quantity: 1}},
		PaymentMethod: model.PaymentMethodBankTransfer,
		TransactionID: &txn,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusAwaitingVerification, order.PaymentStatus)
	assert.Equal(t, model.OrderStatusPending, order.Status)
}

func TestCheckoutRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := f.user("customer@example.com")
	burger := f.product("burger", 8.5, true)
	offMenu := f.product("seasonal special", 15.0, false)

	_, err := f.svc.Checkout(ctx, customer, CheckoutInput{PaymentMethod: model.PaymentMethodCOD})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	_, err = f.svc.Checkout(ctx, customer, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: burger.ID, Quantity: 0}},
		PaymentMethod: model.PaymentMethodCOD,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	_, err = f.svc.Checkout(ctx, customer, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: offMenu.ID, Quantity: 1}},
		PaymentMethod: model.PaymentMethodCOD,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	_, err = f.svc.Checkout(ctx, customer, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: model.PaymentMethodCOD,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	_, err = f.svc.Checkout(ctx, customer, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: burger.ID, Quantity: 1}},
		PaymentMethod: "crypto",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	restricted := uuid.New()
	f.profiles.Seed(&model.Profile{ID: restricted, Email: "banned@example.com", IsRestricted: true})
	_, err = f.svc.Checkout(ctx, model.Session{UserID: restricted}, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: burger.ID, Quantity: 1}},
		PaymentMethod: model.PaymentMethodCOD,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := f.user("customer@example.com")
	other := f.user("other@example.com")
	employee := f.user("employee@example.com", model.RoleEmployee)
	burger := f.product("burger", 8.5, true)

	order, err := f.svc.Checkout(ctx, customer, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: burger.ID, Quantity: 1}},
		PaymentMethod: model.PaymentMethodCOD,
	})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, customer, order.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, employee, order.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, other, order.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	employee := f.user("employee@example.com", model.RoleEmployee)

	order := &model.Order{UserID: uuid.New(), Status: model.OrderStatusPending, PaymentMethod: model.PaymentMethodCOD}
	f.orders.Seed(order)

	// Skipping a stage is a conflict.
	_, err := f.svc.UpdateStatus(ctx, employee, order.ID, model.OrderStatusPreparing)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))

	updated, err := f.svc.UpdateStatus(ctx, employee, order.ID, model.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, employee, order.ID, model.OrderStatusPreparing)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, employee, order.ID, model.OrderStatusOutForDelivery)
	require.NoError(t, err)

	updated, err = f.svc.UpdateStatus(ctx, employee, order.ID, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.NotNil(t, updated.DeliveredAt)

	// Delivered is terminal.
	_, err = f.svc.UpdateStatus(ctx, employee, order.ID, model.OrderStatusCancelled)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))

	_, err = f.svc.UpdateStatus(ctx, employee, order.ID, "shipped")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	assert.Equal(t, []string{model.EventOrderDelivered}, f.outbox.EventTypes())
}

func TestUpdateStatusDeliveryRestrictions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := f.user("customer@example.com")
	courier := f.user("courier@example.com", model.RoleDelivery)
	otherCourier := f.user("courier2@example.com", model.RoleDelivery)

	assigned := &model.Order{
		UserID:           uuid.New(),
		Status:           model.OrderStatusOutForDelivery,
		DeliveryPersonID: &courier.UserID,
		PaymentMethod:    model.PaymentMethodCOD,
	}
	f.orders.Seed(assigned)

	// Customers cannot touch fulfillment at all.
	_, err := f.svc.UpdateStatus(ctx, customer, assigned.ID, model.OrderStatusDelivered)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	// A courier cannot complete someone else's order.
	_, err = f.svc.UpdateStatus(ctx, otherCourier, assigned.ID, model.OrderStatusDelivered)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	// The assigned courier may only mark delivered.
	_, err = f.svc.UpdateStatus(ctx, courier, assigned.ID, model.OrderStatusCancelled)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	updated, err := f.svc.UpdateStatus(ctx, courier, assigned.ID, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)
}

func TestVerifyPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)
	employee := f.user("employee@example.com", model.RoleEmployee)

	txn := "TXN-9"
	order := &model.Order{
		UserID:        uuid.New(),
		Status:        model.OrderStatusPending,
		PaymentMethod: model.PaymentMethodBankTransfer,
		PaymentStatus: model.PaymentStatusAwaitingVerification,
		TransactionID: &txn,
	}
	f.orders.Seed(order)

	// Verification is admin-only.
	_, err := f.svc.VerifyPayment(ctx, employee, order.ID, true)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))

	updated, err := f.svc.VerifyPayment(ctx, admin, order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusVerified, updated.PaymentStatus)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)

	// Settled payments cannot be re-verified.
	_, err = f.svc.VerifyPayment(ctx, admin, order.ID, true)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))

	assert.Equal(t, []string{model.EventPaymentVerified}, f.outbox.EventTypes())
}

func TestVerifyPaymentRejectedCancelsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)

	txn := "TXN-10"
	order := &model.Order{
		UserID:        uuid.New(),
		Status:        model.OrderStatusPending,
		PaymentMethod: model.PaymentMethodBankTransfer,
		PaymentStatus: model.PaymentStatusAwaitingVerification,
		TransactionID: &txn,
	}
	f.orders.Seed(order)

	updated, err := f.svc.VerifyPayment(ctx, admin, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRejected, updated.PaymentStatus)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, stored.Status)

	assert.Equal(t, []string{model.EventPaymentRejected}, f.outbox.EventTypes())
}

func TestVerifyPaymentCODRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)

	order := &model.Order{
		UserID:        uuid.New(),
		Status:        model.OrderStatusPending,
		PaymentMethod: model.PaymentMethodCOD,
		PaymentStatus: model.PaymentStatusPending,
	}
	f.orders.Seed(order)

	_, err := f.svc.VerifyPayment(ctx, admin, order.ID, true)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func TestAssignDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	employee := f.user("employee@example.com", model.RoleEmployee)
	courier := f.user("courier@example.com", model.RoleDelivery)
	customer := f.user("customer@example.com")

	order := &model.Order{UserID: customer.UserID, Status: model.OrderStatusPreparing, PaymentMethod: model.PaymentMethodCOD}
	f.orders.Seed(order)

	// The assignee must hold the delivery role.
	_, err := f.svc.AssignDelivery(ctx, employee, order.ID, customer.UserID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	updated, err := f.svc.AssignDelivery(ctx, employee, order.ID, courier.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusOutForDelivery, updated.Status)
	require.NotNil(t, updated.DeliveryPersonID)
	assert.Equal(t, courier.UserID, *updated.DeliveryPersonID)

	// The courier's dashboard now lists it.
	assigned, err := f.svc.ListAssigned(ctx, courier)
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	// Settled orders cannot be assigned.
	cancelled := &model.Order{UserID: customer.UserID, Status: model.OrderStatusCancelled, PaymentMethod: model.PaymentMethodCOD}
	f.orders.Seed(cancelled)
	_, err = f.svc.AssignDelivery(ctx, employee, cancelled.ID, courier.UserID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestListPaymentQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user("admin@example.com", model.RoleAdmin)
	courier := f.user("courier@example.com", model.RoleDelivery)

	txn := "TXN-11"
	f.orders.Seed(&model.Order{
		UserID:        uuid.New(),
		Status:        model.OrderStatusPending,
		PaymentMethod: model.PaymentMethodBankTransfer,
		PaymentStatus: model.PaymentStatusAwaitingVerification,
		TransactionID: &txn,
	})
	f.orders.Seed(&model.Order{
		UserID:        uuid.New(),
		Status:        model.OrderStatusPending,
		PaymentMethod: model.PaymentMethodCOD,
		PaymentStatus: model.PaymentStatusPending,
	})

	queue, err := f.svc.ListPaymentQueue(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, queue, 1)

	_, err = f.svc.ListPaymentQueue(ctx, courier)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAccessDenied))
}
