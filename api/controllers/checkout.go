package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/api/middleware"
	"github.com/praytees/storefront/api/responses"
	"github.com/praytees/storefront/api/validators"
	checkoutsvc "github.com/praytees/storefront/internal/checkout"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
)

type checkoutRequest struct {
	Customer  checkoutsvc.Customer `json:"customer"`
	Recipient *recipientRequest    `json:"recipient,omitempty"`
	Shipping  *decimal.Decimal     `json:"shipping,omitempty"`
}

// CheckoutCreateSession opens a hosted payment session for the caller's cart.
func CheckoutCreateSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID := middleware.CartSessionFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Shipping != nil && payload.Shipping.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shipping must not be negative"))
			return
		}

		req := checkoutsvc.Request{
			CartSessionID: sessionID,
			Customer:      payload.Customer,
			Shipping:      payload.Shipping,
		}
		if payload.Recipient != nil {
			addr := payload.Recipient.toAddress()
			req.Address = &addr
		}

		session, err := svc.CreateSession(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}
