package orders

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praytees/storefront/pkg/db"
	"github.com/praytees/storefront/pkg/db/models"
	"github.com/praytees/storefront/pkg/enums"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/money"
	"github.com/praytees/storefront/pkg/pubsub"
	"github.com/praytees/storefront/pkg/types"
)

// NewOrder describes the pending order recorded when a checkout session opens.
type NewOrder struct {
	CheckoutSession string
	CartSessionID   string
	CustomerEmail   string
	CustomerPhone   string
	Currency        string
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Items           []NewItem
}

// NewItem is one cart line copied into the order.
type NewItem struct {
	ProductID string
	VariantID int64
	Name      string
	Size      string
	Color     string
	Image     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Payment is the provider's confirmation of a completed checkout session.
type Payment struct {
	CheckoutSession string
	AmountPaidCents int64
	Currency        string
	CustomerEmail   string
	CustomerName    string
	CustomerPhone   string
	ShippingAddress *types.PostalAddress
}

// PaidEvent is the order.paid payload consumed by the fulfillment worker.
type PaidEvent struct {
	OrderID         string `json:"order_id"`
	CheckoutSession string `json:"checkout_session_id"`
}

// CartClearer drops a cart once its order is paid.
type CartClearer interface {
	Delete(ctx context.Context, sessionID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records orders across their payment lifecycle.
type Service interface {
	CreatePending(ctx context.Context, input NewOrder) (*models.Order, error)
	MarkPaid(ctx context.Context, payment Payment) (*models.Order, error)
	MarkExpired(ctx context.Context, checkoutSession string) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Publisher pubsub.Publisher
	Carts     CartClearer
	Logger    *logger.Logger
	Clock     func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	publisher pubsub.Publisher
	carts     CartClearer
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event publisher required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		publisher: params.Publisher,
		carts:     params.Carts,
		logg:      params.Logger,
		now:       clock,
	}, nil
}

func (s *service) CreatePending(ctx context.Context, input NewOrder) (*models.Order, error) {
	sessionID := strings.TrimSpace(input.CheckoutSession)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}

	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "usd"
	}
	order := &models.Order{
		CheckoutSession: sessionID,
		Status:          enums.OrderStatusPending,
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:   optionalString(input.CustomerPhone),
		CartSessionID:   optionalString(input.CartSessionID),
		Currency:        currency,
		SubtotalCents:   money.ToCents(input.Subtotal),
		ShippingCents:   money.ToCents(input.Shipping),
		TaxCents:        money.ToCents(input.Tax),
		TotalCents:      money.ToCents(input.Total),
	}
	for _, item := range input.Items {
		order.LineItems = append(order.LineItems, models.OrderLineItem{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			Size:           item.Size,
			Color:          item.Color,
			Image:          optionalString(item.Image),
			UnitPriceCents: money.ToCents(item.UnitPrice),
			Quantity:       item.Quantity,
		})
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		created, err = s.repo.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists for checkout session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pending order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, created.ID.String()), "pending order created")
	return created, nil
}

// MarkPaid moves the session's order to paid and announces it. A retried
// confirmation for an order that is paid but not yet submitted announces it
// again so fulfillment is re-driven.
func (s *service) MarkPaid(ctx context.Context, payment Payment) (*models.Order, error) {
	order, err := s.findBySession(ctx, payment.CheckoutSession)
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())

	switch order.Status {
	case enums.OrderStatusPending:
		updates, err := s.paymentUpdates(payment)
		if err != nil {
			return nil, err
		}
		moved, err := s.repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaid, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
		}
		if order, err = s.Get(ctx, order.ID); err != nil {
			return nil, err
		}
		if !moved && order.Status != enums.OrderStatusPaid {
			return order, nil
		}
		if moved {
			s.logg.Info(logCtx, "order marked paid")
			s.clearCart(logCtx, order)
		}
	case enums.OrderStatusPaid:
		s.logg.Info(logCtx, "order already paid; re-announcing")
	case enums.OrderStatusSubmitted, enums.OrderStatusFulfillmentFailed:
		return order, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be paid").
			WithDetails(map[string]any{"status": order.Status})
	}

	if err := s.announcePaid(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) MarkExpired(ctx context.Context, checkoutSession string) error {
	order, err := s.findBySession(ctx, checkoutSession)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPending {
		return nil
	}
	moved, err := s.repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusExpired, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order expired")
	}
	if moved {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order expired")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) findBySession(ctx context.Context, checkoutSession string) (*models.Order, error) {
	sessionID := strings.TrimSpace(checkoutSession)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id is required")
	}
	order, err := s.repo.FindByCheckoutSession(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for checkout session").
				WithDetails(map[string]any{"checkout_session_id": sessionID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by checkout session")
	}
	return order, nil
}

func (s *service) paymentUpdates(payment Payment) (map[string]any, error) {
	updates := map[string]any{
		"amount_paid_cents": payment.AmountPaidCents,
		"paid_at":           s.now().UTC(),
	}
	if email := strings.TrimSpace(payment.CustomerEmail); email != "" {
		updates["customer_email"] = email
	}
	if name := strings.TrimSpace(payment.CustomerName); name != "" {
		updates["customer_name"] = name
	}
	if phone := strings.TrimSpace(payment.CustomerPhone); phone != "" {
		updates["customer_phone"] = phone
	}
	if currency := strings.ToLower(strings.TrimSpace(payment.Currency)); currency != "" {
		updates["currency"] = currency
	}
	if payment.ShippingAddress != nil {
		raw, err := json.Marshal(payment.ShippingAddress.Normalized())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode shipping address")
		}
		updates["shipping_address"] = string(raw)
	}
	return updates, nil
}

func (s *service) clearCart(ctx context.Context, order *models.Order) {
	if s.carts == nil || order.CartSessionID == nil || *order.CartSessionID == "" {
		return
	}
	if err := s.carts.Delete(ctx, *order.CartSessionID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to clear paid cart")
	}
}

func (s *service) announcePaid(ctx context.Context, order *models.Order) error {
	event := PaidEvent{OrderID: order.ID.String(), CheckoutSession: order.CheckoutSession}
	eventID, err := s.publisher.Publish(ctx, enums.EventOrderPaid, order.ID.String(), event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish order paid")
	}
	s.logg.Info(s.logg.WithField(ctx, "event_id", eventID), "order paid event published")
	return nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
