package orders

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praytees/storefront/pkg/db"
	"github.com/praytees/storefront/pkg/enums"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/types"
)

type publishedEvent struct {
	eventType   enums.EventType
	aggregateID string
	data        any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, eventType enums.EventType, aggregateID string, data any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, publishedEvent{eventType: eventType, aggregateID: aggregateID, data: data})
	return "evt-1", nil
}

type fakeCarts struct {
	deleted []string
	err     error
}

func (f *fakeCarts) Delete(ctx context.Context, sessionID string) error {
	f.deleted = append(f.deleted, sessionID)
	return f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T) (Service, *fakePublisher, *fakeCarts) {
	t.Helper()
	conn := setupOrdersTestDB(t)
	pub := &fakePublisher{}
	carts := &fakeCarts{}
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		Tx:        db.Wrap(conn),
		Publisher: pub,
		Carts:     carts,
		Logger:    testLogger(),
		Clock:     func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc, pub, carts
}

func sampleNewOrder(session string) NewOrder {
	return NewOrder{
		CheckoutSession: session,
		CartSessionID:   "5f1c0c8e-0c1f-4b7a-9f55-1f4f4c4e7a10",
		CustomerEmail:   " buyer@example.com ",
		Subtotal:        decimal.RequireFromString("52.48"),
		Shipping:        decimal.RequireFromString("9.99"),
		Tax:             decimal.RequireFromString("4.20"),
		Total:           decimal.RequireFromString("66.67"),
		Items: []NewItem{
			{ProductID: "100", VariantID: 11, Name: "Faith Tee", Size: "S", Color: "Black", UnitPrice: decimal.RequireFromString("25.00"), Quantity: 1},
			{ProductID: "200", VariantID: 202, Name: "Prayer Hoodie", Size: "M", Color: "Navy", UnitPrice: decimal.RequireFromString("27.48"), Quantity: 1},
		},
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestCreatePendingStoresCents(t *testing.T) {
	svc, _, _ := newTestService(t)

	order, err := svc.CreatePending(context.Background(), sampleNewOrder("cs_pending"))
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, "buyer@example.com", order.CustomerEmail)
	assert.Equal(t, "usd", order.Currency)
	assert.Equal(t, int64(5248), order.SubtotalCents)
	assert.Equal(t, int64(6667), order.TotalCents)
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, int64(2748), order.LineItems[1].UnitPriceCents)
	assert.Nil(t, order.LineItems[0].Image)
}

func TestCreatePendingValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreatePending(context.Background(), NewOrder{Items: sampleNewOrder("x").Items})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreatePending(context.Background(), NewOrder{CheckoutSession: "cs_empty"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreatePendingDuplicateSessionConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePending(ctx, sampleNewOrder("cs_twice"))
	require.NoError(t, err)
	_, err = svc.CreatePending(ctx, sampleNewOrder("cs_twice"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestMarkPaidUpdatesOrderClearsCartAndPublishes(t *testing.T) {
	svc, pub, carts := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePending(ctx, sampleNewOrder("cs_paid"))
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, Payment{
		CheckoutSession: "cs_paid",
		AmountPaidCents: 6667,
		Currency:        "USD",
		CustomerName:    "Grace Hopper",
		ShippingAddress: &types.PostalAddress{Line1: "1 Way", City: "Austin", State: "tx", PostalCode: "78701", Country: "us"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, paid.ID)
	assert.Equal(t, enums.OrderStatusPaid, paid.Status)
	assert.Equal(t, "Grace Hopper", paid.CustomerName)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.ShippingAddress)
	assert.Equal(t, "US", paid.ShippingAddress.Country)
	assert.Equal(t, "TX", paid.ShippingAddress.State)

	assert.Equal(t, []string{"5f1c0c8e-0c1f-4b7a-9f55-1f4f4c4e7a10"}, carts.deleted)
	require.Len(t, pub.events, 1)
	assert.Equal(t, enums.EventOrderPaid, pub.events[0].eventType)
	assert.Equal(t, created.ID.String(), pub.events[0].aggregateID)
	assert.Equal(t, PaidEvent{OrderID: created.ID.String(), CheckoutSession: "cs_paid"}, pub.events[0].data)
}

func TestMarkPaidRetryRepublishesWithoutClearingAgain(t *testing.T) {
	svc, pub, carts := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePending(ctx, sampleNewOrder("cs_retry"))
	require.NoError(t, err)

	payment := Payment{CheckoutSession: "cs_retry", AmountPaidCents: 6667}
	_, err = svc.MarkPaid(ctx, payment)
	require.NoError(t, err)
	_, err = svc.MarkPaid(ctx, payment)
	require.NoError(t, err)

	assert.Len(t, carts.deleted, 1)
	assert.Len(t, pub.events, 2)
}

func TestMarkPaidPublishFailureIsDependencyError(t *testing.T) {
	svc, pub, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePending(ctx, sampleNewOrder("cs_pubfail"))
	require.NoError(t, err)

	pub.err = errors.New("topic unavailable")
	_, err = svc.MarkPaid(ctx, Payment{CheckoutSession: "cs_pubfail"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	pub.err = nil
	order, err := svc.MarkPaid(ctx, Payment{CheckoutSession: "cs_pubfail"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.Len(t, pub.events, 1)
}

func TestMarkPaidCartClearFailureIsNotFatal(t *testing.T) {
	svc, pub, carts := newTestService(t)
	ctx := context.Background()
	carts.err = errors.New("redis down")

	_, err := svc.CreatePending(ctx, sampleNewOrder("cs_cartfail"))
	require.NoError(t, err)
	_, err = svc.MarkPaid(ctx, Payment{CheckoutSession: "cs_cartfail"})
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}

func TestMarkPaidUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.MarkPaid(context.Background(), Payment{CheckoutSession: "cs_nope"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMarkExpired(t *testing.T) {
	svc, pub, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePending(ctx, sampleNewOrder("cs_expire"))
	require.NoError(t, err)
	require.NoError(t, svc.MarkExpired(ctx, "cs_expire"))

	order, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusExpired, order.Status)

	_, err = svc.MarkPaid(ctx, Payment{CheckoutSession: "cs_expire"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, pub.events)

	assert.NoError(t, svc.MarkExpired(ctx, "cs_expire"))
}
