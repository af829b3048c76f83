package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/praytees/storefront/internal/orders"
	"github.com/praytees/storefront/pkg/db/models"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/types"
)

type orderPayments interface {
	MarkPaid(ctx context.Context, payment orders.Payment) (*models.Order, error)
	MarkExpired(ctx context.Context, checkoutSession string) error
}

type ServiceParams struct {
	Orders orderPayments
	Logger *logger.Logger
}

// Service applies Stripe checkout events to storefront orders.
type Service struct {
	orders orderPayments
	logg   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{orders: params.Orders, logg: params.Logger}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"stripe_event_id":   event.ID,
		"stripe_event_type": string(event.Type),
	})

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			s.logg.Info(logCtx, "checkout completed without payment; waiting for async confirmation")
			return nil
		}
		_, err = s.orders.MarkPaid(ctx, paymentFromSession(session))
		return s.ignoreUnknownSession(logCtx, err)
	case stripe.EventTypeCheckoutSessionExpired:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.ignoreUnknownSession(logCtx, s.orders.MarkExpired(ctx, session.ID))
	default:
		s.logg.Debug(logCtx, "ignoring stripe event")
		return nil
	}
}

// ignoreUnknownSession acknowledges sessions this storefront never recorded;
// retrying them cannot succeed.
func (s *Service) ignoreUnknownSession(ctx context.Context, err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "stripe session has no order")
		return nil
	}
	return err
}

func decodeSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	return &session, nil
}

func paymentFromSession(session *stripe.CheckoutSession) orders.Payment {
	payment := orders.Payment{
		CheckoutSession: session.ID,
		AmountPaidCents: session.AmountTotal,
		Currency:        string(session.Currency),
		CustomerEmail:   session.CustomerEmail,
	}
	if details := session.CustomerDetails; details != nil {
		if details.Email != "" {
			payment.CustomerEmail = details.Email
		}
		payment.CustomerName = details.Name
		payment.CustomerPhone = details.Phone
	}
	if payment.CustomerPhone == "" {
		payment.CustomerPhone = session.Metadata["customer_phone"]
	}
	for _, field := range session.CustomFields {
		if field != nil && field.Key == "phone" && field.Text != nil && field.Text.Value != "" {
			payment.CustomerPhone = field.Text.Value
		}
	}
	payment.ShippingAddress = shippingAddress(session)
	return payment
}

func shippingAddress(session *stripe.CheckoutSession) *types.PostalAddress {
	if info := session.CollectedInformation; info != nil && info.ShippingDetails != nil && info.ShippingDetails.Address != nil {
		return postalAddress(info.ShippingDetails.Name, info.ShippingDetails.Address)
	}
	if details := session.CustomerDetails; details != nil && details.Address != nil {
		return postalAddress(details.Name, details.Address)
	}
	return nil
}

func postalAddress(name string, addr *stripe.Address) *types.PostalAddress {
	return &types.PostalAddress{
		Name:       name,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
}
