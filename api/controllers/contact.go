package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praytees/storefront/api/middleware"
	"github.com/praytees/storefront/api/responses"
	"github.com/praytees/storefront/api/validators"
	"github.com/praytees/storefront/internal/contact"
	"github.com/praytees/storefront/pkg/db/models"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
)

type contactSubmitter interface {
	Submit(ctx context.Context, clientKey string, sub contact.Submission) (*models.ContactMessage, error)
}

type contactReceipt struct {
	ID         uuid.UUID `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
}

// ContactSubmit stores a contact form message. Submissions are throttled per
// client IP.
func ContactSubmit(svc contactSubmitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contact service unavailable"))
			return
		}

		var payload contact.Submission
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg, err := svc.Submit(r.Context(), middleware.ClientIP(r), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, contactReceipt{ID: msg.ID, ReceivedAt: msg.CreatedAt})
	}
}
