package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/api/middleware"
	"github.com/praytees/storefront/api/responses"
	"github.com/praytees/storefront/api/validators"
	"github.com/praytees/storefront/internal/cart"
	"github.com/praytees/storefront/internal/shipping"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
)

type cartReader interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
}

// recipientRequest accepts either a country name from the checkout form or an
// ISO code.
type recipientRequest struct {
	Country   string `json:"country" validate:"required,max=64"`
	StateCode string `json:"state_code" validate:"max=8"`
	City      string `json:"city" validate:"max=128"`
	Zip       string `json:"zip" validate:"max=16"`
	Address1  string `json:"address1" validate:"max=256"`
}

func (r recipientRequest) toAddress() shipping.Address {
	return shipping.Address{
		CountryCode: shipping.CountryCode(r.Country),
		StateCode:   strings.TrimSpace(r.StateCode),
		City:        strings.TrimSpace(r.City),
		Zip:         strings.TrimSpace(r.Zip),
		Address1:    strings.TrimSpace(r.Address1),
	}
}

type shippingItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,max=64"`
	Size      string          `json:"size" validate:"max=32"`
	Color     string          `json:"color" validate:"max=64"`
	Quantity  int             `json:"quantity" validate:"required,min=1,max=99"`
	VariantID int64           `json:"variant_id" validate:"gte=0"`
	Price     decimal.Decimal `json:"price"`
}

type shippingQuoteRequest struct {
	Recipient recipientRequest      `json:"recipient"`
	Items     []shippingItemRequest `json:"items" validate:"omitempty,max=50,dive"`
}

type shippingEstimateResponse struct {
	Shipping decimal.Decimal `json:"shipping"`
	Currency string          `json:"currency"`
}

// ShippingRates quotes every available option for the recipient.
func ShippingRates(svc shipping.Service, carts cartReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		addr, items, err := decodeShippingQuote(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.Rates(r.Context(), addr, items))
	}
}

// ShippingEstimate returns the single amount checkout will charge.
func ShippingEstimate(svc shipping.Service, carts cartReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		addr, items, err := decodeShippingQuote(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shippingEstimateResponse{
			Shipping: svc.EstimatedShipping(r.Context(), items, addr),
			Currency: "USD",
		})
	}
}

// decodeShippingQuote falls back to the session cart when the body lists no
// items.
func decodeShippingQuote(r *http.Request, carts cartReader) (shipping.Address, []cart.LineItem, error) {
	var payload shippingQuoteRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return shipping.Address{}, nil, err
	}
	addr := payload.Recipient.toAddress()

	if len(payload.Items) > 0 {
		items := make([]cart.LineItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			if item.Price.IsNegative() {
				return shipping.Address{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative")
			}
			items = append(items, cart.LineItem{
				ProductID: strings.TrimSpace(item.ProductID),
				Size:      strings.TrimSpace(item.Size),
				Color:     strings.TrimSpace(item.Color),
				Quantity:  item.Quantity,
				VariantID: item.VariantID,
				Price:     item.Price,
			})
		}
		return addr, items, nil
	}

	sessionID := middleware.CartSessionFromContext(r.Context())
	if carts == nil || sessionID == "" {
		return shipping.Address{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "items are required")
	}
	current, err := carts.Get(r.Context(), sessionID)
	if err != nil {
		return shipping.Address{}, nil, err
	}
	if len(current.Items) == 0 {
		return shipping.Address{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return addr, current.Items, nil
}
