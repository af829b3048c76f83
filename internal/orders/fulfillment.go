package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praytees/storefront/pkg/db"
	"github.com/praytees/storefront/pkg/db/models"
	"github.com/praytees/storefront/pkg/enums"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/money"
	"github.com/praytees/storefront/pkg/printful"
)

const fulfillmentShipping = "STANDARD"

// FulfillmentAPI creates draft orders with the print provider.
type FulfillmentAPI interface {
	CreateOrder(ctx context.Context, req printful.CreateOrderRequest) (*printful.Order, error)
}

// Fulfiller hands paid orders to Printful.
type Fulfiller struct {
	repo Repository
	api  FulfillmentAPI
	logg *logger.Logger
	now  func() time.Time
}

func NewFulfiller(repo Repository, api FulfillmentAPI, logg *logger.Logger) (*Fulfiller, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment api required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Fulfiller{repo: repo, api: api, logg: logg, now: time.Now}, nil
}

// Submit sends the order to Printful once. Transient provider failures are
// returned untouched so the caller can retry; anything else marks the order
// fulfillment_failed.
func (f *Fulfiller) Submit(ctx context.Context, orderID uuid.UUID) error {
	order, err := f.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order for fulfillment")
	}
	logCtx := f.logg.WithOrderID(ctx, order.ID.String())

	switch order.Status {
	case enums.OrderStatusSubmitted:
		f.logg.Info(logCtx, "order already submitted")
		return nil
	case enums.OrderStatusPaid, enums.OrderStatusFulfillmentFailed:
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not ready for fulfillment").
			WithDetails(map[string]any{"status": order.Status})
	}

	req, err := buildFulfillmentRequest(order)
	if err != nil {
		return f.fail(logCtx, order, err)
	}

	created, err := f.api.CreateOrder(ctx, req)
	if err != nil {
		if pkgerrors.Retryable(err) {
			f.logg.Warn(f.logg.WithField(logCtx, "error", err.Error()), "printful order submission failed; will retry")
			return err
		}
		return f.fail(logCtx, order, err)
	}

	moved, err := f.repo.UpdateStatus(ctx, order.ID, order.Status, enums.OrderStatusSubmitted, map[string]any{
		"printful_order_id": created.ID,
		"submitted_at":      f.now().UTC(),
		"failure_reason":    nil,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order submitted")
	}
	if !moved {
		f.logg.Warn(logCtx, "order changed status during submission")
		return nil
	}
	f.logg.Info(f.logg.WithField(logCtx, "printful_order_id", created.ID), "order submitted to printful")
	return nil
}

func (f *Fulfiller) fail(ctx context.Context, order *models.Order, cause error) error {
	reason := pkgerrors.Describe(cause)
	if order.Status != enums.OrderStatusFulfillmentFailed {
		if _, err := f.repo.UpdateStatus(ctx, order.ID, order.Status, enums.OrderStatusFulfillmentFailed, map[string]any{
			"failure_reason": reason,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark fulfillment failed")
		}
	}
	f.logg.Error(ctx, "order fulfillment failed", cause)
	return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, "order cannot be fulfilled")
}

func buildFulfillmentRequest(order *models.Order) (printful.CreateOrderRequest, error) {
	addr := order.ShippingAddress
	if addr == nil || strings.TrimSpace(addr.Line1) == "" || strings.TrimSpace(addr.Country) == "" {
		return printful.CreateOrderRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "order has no shipping address")
	}
	if len(order.LineItems) == 0 {
		return printful.CreateOrderRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "order has no line items")
	}

	name := addr.Name
	if name == "" {
		name = order.CustomerName
	}
	address1 := addr.Line1
	if addr.Line2 != "" {
		address1 += ", " + addr.Line2
	}
	recipient := printful.Recipient{
		Name:        name,
		Address1:    address1,
		City:        addr.City,
		StateCode:   addr.State,
		CountryCode: addr.Country,
		Zip:         addr.PostalCode,
		Email:       order.CustomerEmail,
	}
	if order.CustomerPhone != nil {
		recipient.Phone = *order.CustomerPhone
	}

	items := make([]printful.OrderItem, 0, len(order.LineItems))
	for _, line := range order.LineItems {
		items = append(items, printful.OrderItem{
			VariantID:   line.VariantID,
			Quantity:    line.Quantity,
			Name:        line.Name,
			RetailPrice: money.FromCents(line.UnitPriceCents).StringFixed(2),
		})
	}

	return printful.CreateOrderRequest{
		// external ids are limited to 32 characters
		ExternalID: strings.ReplaceAll(order.ID.String(), "-", ""),
		Shipping:   fulfillmentShipping,
		Recipient:  recipient,
		Items:      items,
	}, nil
}
