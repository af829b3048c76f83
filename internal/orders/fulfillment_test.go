package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praytees/storefront/pkg/db/models"
	"github.com/praytees/storefront/pkg/enums"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/printful"
	"github.com/praytees/storefront/pkg/types"
)

type fakeFulfillmentAPI struct {
	requests []printful.CreateOrderRequest
	err      error
}

func (f *fakeFulfillmentAPI) CreateOrder(ctx context.Context, req printful.CreateOrderRequest) (*printful.Order, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &printful.Order{ID: 987654, ExternalID: req.ExternalID, Status: "draft"}, nil
}

func seedPaidOrder(t *testing.T, repo Repository, session string, addr *types.PostalAddress) *models.Order {
	t.Helper()
	order := newPendingOrder(session)
	order.Status = enums.OrderStatusPaid
	order.CustomerName = "Grace Hopper"
	order.ShippingAddress = addr
	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func austin() *types.PostalAddress {
	return &types.PostalAddress{Line1: "1 Way", Line2: "Apt 4", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"}
}

func TestFulfillerSubmitsPaidOrder(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	api := &fakeFulfillmentAPI{}
	fulfiller, err := NewFulfiller(repo, api, testLogger())
	require.NoError(t, err)

	order := seedPaidOrder(t, repo, "cs_fulfill", austin())
	require.NoError(t, fulfiller.Submit(context.Background(), order.ID))

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Len(t, req.ExternalID, 32)
	assert.Equal(t, "STANDARD", req.Shipping)
	assert.Equal(t, "Grace Hopper", req.Recipient.Name)
	assert.Equal(t, "1 Way, Apt 4", req.Recipient.Address1)
	assert.Equal(t, "US", req.Recipient.CountryCode)
	require.Len(t, req.Items, 2)
	assert.Equal(t, int64(11), req.Items[0].VariantID)
	assert.Equal(t, "25.00", req.Items[0].RetailPrice)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusSubmitted, reloaded.Status)
	require.NotNil(t, reloaded.PrintfulOrderID)
	assert.Equal(t, int64(987654), *reloaded.PrintfulOrderID)
	assert.NotNil(t, reloaded.SubmittedAt)

	require.NoError(t, fulfiller.Submit(context.Background(), order.ID))
	assert.Len(t, api.requests, 1, "submitted orders are not sent twice")
}

func TestFulfillerTransientFailureKeepsOrderPaid(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	api := &fakeFulfillmentAPI{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("status 502"), "create order request failed")}
	fulfiller, err := NewFulfiller(repo, api, testLogger())
	require.NoError(t, err)

	order := seedPaidOrder(t, repo, "cs_transient", austin())
	err = fulfiller.Submit(context.Background(), order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Retryable(err))

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, reloaded.Status)
}

func TestFulfillerRejectionMarksFailed(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	api := &fakeFulfillmentAPI{err: pkgerrors.Wrap(pkgerrors.CodeValidation, errors.New("status 400: bad variant"), "create order request rejected")}
	fulfiller, err := NewFulfiller(repo, api, testLogger())
	require.NoError(t, err)

	order := seedPaidOrder(t, repo, "cs_rejected", austin())
	err = fulfiller.Submit(context.Background(), order.ID)
	require.Error(t, err)
	assert.False(t, pkgerrors.Retryable(err))

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusFulfillmentFailed, reloaded.Status)
	require.NotNil(t, reloaded.FailureReason)
	assert.Contains(t, *reloaded.FailureReason, "bad variant")

	api.err = nil
	require.NoError(t, fulfiller.Submit(context.Background(), order.ID))
	reloaded, err = repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusSubmitted, reloaded.Status)
	assert.Nil(t, reloaded.FailureReason)
}

func TestFulfillerMissingAddressFailsWithoutCallingAPI(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	api := &fakeFulfillmentAPI{}
	fulfiller, err := NewFulfiller(repo, api, testLogger())
	require.NoError(t, err)

	order := seedPaidOrder(t, repo, "cs_noaddr", nil)
	err = fulfiller.Submit(context.Background(), order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, api.requests)
}

func TestFulfillerRejectsPendingAndUnknownOrders(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	fulfiller, err := NewFulfiller(repo, &fakeFulfillmentAPI{}, testLogger())
	require.NoError(t, err)

	pending, err := repo.Create(context.Background(), newPendingOrder("cs_not_paid"))
	require.NoError(t, err)
	assert.True(t, pkgerrors.IsCode(fulfiller.Submit(context.Background(), pending.ID), pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(fulfiller.Submit(context.Background(), uuid.New()), pkgerrors.CodeNotFound))
}
