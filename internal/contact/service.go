package contact

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/praytees/storefront/pkg/db/models"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
)

const rateLimitScope = "contact"

var validate = validator.New()

// Submission is the contact form as posted by a visitor.
type Submission struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"max=40"`
	Subject string `json:"subject,omitempty" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type repository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
}

// Limiter is a fixed-window counter keyed by scope.
type Limiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type ServiceParams struct {
	Repo    repository
	Limiter Limiter
	Limit   int64
	Window  time.Duration
	Logger  *logger.Logger
}

// Service stores contact messages for the support inbox.
type Service struct {
	repo    repository
	limiter Limiter
	limit   int64
	window  time.Duration
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "contact repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		repo:    params.Repo,
		limiter: params.Limiter,
		limit:   params.Limit,
		window:  params.Window,
		logg:    params.Logger,
	}, nil
}

// Submit records the message. clientKey identifies the sender for rate
// limiting, usually the remote address.
func (s *Service) Submit(ctx context.Context, clientKey string, sub Submission) (*models.ContactMessage, error) {
	msg, err := normalize(sub)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, clientKey); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store contact message")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"contact_id": msg.ID.String(),
		"email":      msg.Email,
	}), "contact message received")
	return msg, nil
}

func (s *Service) allow(ctx context.Context, clientKey string) error {
	if s.limiter == nil || s.limit <= 0 || strings.TrimSpace(clientKey) == "" {
		return nil
	}
	ok, _, err := s.limiter.FixedWindowAllow(ctx, rateLimitScope+":"+clientKey, s.limit, s.window)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "contact rate limiter unavailable")
		return nil
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many contact messages; try again later")
	}
	return nil
}

func normalize(sub Submission) (*models.ContactMessage, error) {
	name := strings.TrimSpace(sub.Name)
	email := strings.TrimSpace(sub.Email)
	body := strings.TrimSpace(sub.Message)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if body == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").
			WithDetails(map[string]any{"fields": missing})
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email address")
	}

	return &models.ContactMessage{
		Name:    name,
		Email:   email,
		Phone:   optional(sub.Phone),
		Subject: optional(sub.Subject),
		Message: body,
	}, nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
