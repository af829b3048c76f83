package checkout

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/praytees/storefront/internal/cart"
	"github.com/praytees/storefront/internal/orders"
	"github.com/praytees/storefront/internal/shipping"
	"github.com/praytees/storefront/pkg/db/models"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
)

const (
	outcomeCreated  = "created"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// Gateway opens hosted payment sessions.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Currency() string
}

type cartReader interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
}

type shippingQuoter interface {
	EstimatedShipping(ctx context.Context, items []cart.LineItem, addr shipping.Address) decimal.Decimal
}

type orderRecorder interface {
	CreatePending(ctx context.Context, input orders.NewOrder) (*models.Order, error)
}

// SessionObserver counts checkout attempts by outcome.
type SessionObserver interface {
	CheckoutSession(outcome string)
}

// Request starts checkout for one cart session. Shipping overrides the quote
// when the client already showed the buyer a price.
type Request struct {
	CartSessionID string
	Customer      Customer
	Address       *shipping.Address
	Shipping      *decimal.Decimal
}

// Session is the hosted payment page handed back to the client.
type Session struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	OrderID   string `json:"orderId"`
	Totals    Totals `json:"totals"`
}

// Service creates payment sessions for carts.
type Service interface {
	CreateSession(ctx context.Context, req Request) (*Session, error)
}

type ServiceParams struct {
	Gateway         Gateway
	Carts           cartReader
	Shipping        shippingQuoter
	Orders          orderRecorder
	Observer        SessionObserver
	Logger          *logger.Logger
	Options         SessionOptions
	TaxRate         decimal.Decimal
	DefaultShipping decimal.Decimal
}

type service struct {
	gateway         Gateway
	carts           cartReader
	shipping        shippingQuoter
	orders          orderRecorder
	observer        SessionObserver
	logg            *logger.Logger
	opts            SessionOptions
	taxRate         decimal.Decimal
	defaultShipping decimal.Decimal
}

func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order recorder required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if strings.TrimSpace(params.Options.SuccessURL) == "" || strings.TrimSpace(params.Options.CancelURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout success and cancel urls required")
	}
	opts := params.Options
	if opts.Currency == "" {
		opts.Currency = params.Gateway.Currency()
	}
	return &service{
		gateway:         params.Gateway,
		carts:           params.Carts,
		shipping:        params.Shipping,
		orders:          params.Orders,
		observer:        params.Observer,
		logg:            params.Logger,
		opts:            opts,
		taxRate:         params.TaxRate,
		defaultShipping: params.DefaultShipping,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, req Request) (*Session, error) {
	current, err := s.carts.Get(ctx, req.CartSessionID)
	if err != nil {
		s.observe(outcomeRejected)
		return nil, err
	}
	logCtx := s.logg.WithCartSession(ctx, current.SessionID)

	shippingCost, err := s.shippingFor(ctx, current.Items, req)
	if err != nil {
		s.observe(outcomeRejected)
		return nil, err
	}
	payload := BuildPayload(current.Items, req.Customer, shippingCost)
	if payload.Customer.Email == "" {
		s.observe(outcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if err := Validate(payload.Items); err != nil {
		s.observe(outcomeRejected)
		return nil, err
	}
	totals := ComputeTotals(payload.Items, payload.Shipping, s.taxRate)
	recorded := totals
	if s.opts.AutomaticTax {
		// Stripe adds the tax; the paid amount arrives with the webhook.
		totals.TaxEstimated = true
		recorded = totals.BeforeTax()
	}

	created, err := s.gateway.CreateCheckoutSession(ctx, sessionParams(payload, current.SessionID, s.opts))
	if err != nil {
		s.observe(outcomeFailed)
		s.logg.Error(logCtx, "failed to create checkout session", err)
		return nil, err
	}

	order, err := s.orders.CreatePending(ctx, orders.NewOrder{
		CheckoutSession: created.ID,
		CartSessionID:   current.SessionID,
		CustomerEmail:   payload.Customer.Email,
		CustomerPhone:   payload.Customer.Phone,
		Currency:        s.opts.Currency,
		Subtotal:        recorded.Subtotal,
		Shipping:        recorded.Shipping,
		Tax:             recorded.Tax,
		Total:           recorded.Total,
		Items:           orderItems(payload.Items),
	})
	if err != nil {
		s.observe(outcomeFailed)
		s.logg.Error(logCtx, "failed to record pending order", err)
		return nil, err
	}

	s.observe(outcomeCreated)
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"checkout_session_id": created.ID,
		"order_id":            order.ID.String(),
	}), "checkout session created")

	return &Session{
		SessionID: created.ID,
		URL:       created.URL,
		OrderID:   order.ID.String(),
		Totals:    totals,
	}, nil
}

func (s *service) shippingFor(ctx context.Context, items []cart.LineItem, req Request) (decimal.Decimal, error) {
	if req.Shipping != nil {
		if req.Shipping.IsNegative() {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "shipping cannot be negative")
		}
		return *req.Shipping, nil
	}
	if s.shipping != nil && req.Address != nil && len(items) > 0 {
		return s.shipping.EstimatedShipping(ctx, items, *req.Address), nil
	}
	return s.defaultShipping, nil
}

func (s *service) observe(outcome string) {
	if s.observer != nil {
		s.observer.CheckoutSession(outcome)
	}
}

func orderItems(items []Item) []orders.NewItem {
	out := make([]orders.NewItem, 0, len(items))
	for _, item := range items {
		out = append(out, orders.NewItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			Size:      item.Size,
			Color:     item.Color,
			Image:     item.Image,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}
	return out
}
