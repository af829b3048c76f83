package wishlist

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praytees/storefront/pkg/db/models"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/pagination"
)

const maxProductIDLength = 64

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
	Clock  func() time.Time
}

// Service exposes a signed-in user's liked products.
type Service interface {
	Add(ctx context.Context, userID, productID string, snapshot map[string]any) error
	Remove(ctx context.Context, userID, productID string) error
	IsMember(ctx context.Context, userID, productID string) (bool, error)
	List(ctx context.Context, userID string, params pagination.Params) (Page, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: params.Repo, logg: params.Logger, now: clock}, nil
}

// Add likes the product. Liking it again keeps the original row.
func (s *service) Add(ctx context.Context, userID, productID string, snapshot map[string]any) error {
	userID, productID, err := normalizeKeys(userID, productID)
	if err != nil {
		return err
	}
	created, err := s.repo.Add(ctx, &models.WishlistItem{
		ID:          uuid.New(),
		UserID:      userID,
		ProductID:   productID,
		ProductData: snapshot,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	if created {
		s.logg.Debug(s.logg.WithFields(s.logg.WithUserID(ctx, userID), map[string]any{"product_id": productID}), "wishlist item added")
	}
	return nil
}

// Remove drops the wishlist entry regardless of prior state.
func (s *service) Remove(ctx context.Context, userID, productID string) error {
	userID, productID, err := normalizeKeys(userID, productID)
	if err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}

func (s *service) IsMember(ctx context.Context, userID, productID string) (bool, error) {
	userID, productID, err := normalizeKeys(userID, productID)
	if err != nil {
		return false, err
	}
	ok, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist item")
	}
	return ok, nil
}

func (s *service) List(ctx context.Context, userID string, params pagination.Params) (Page, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Page{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, userID, cursor, params.Limit)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist items")
	}
	total, err := s.repo.Count(ctx, userID)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count wishlist items")
	}

	page, next := pagination.Split(rows, params.Limit, func(row models.WishlistItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	items := make([]Item, 0, len(page))
	for _, row := range page {
		items = append(items, Item{ProductID: row.ProductID, Product: row.ProductData, CreatedAt: row.CreatedAt})
	}
	return Page{Items: items, NextCursor: next, Total: total}, nil
}

func normalizeKeys(userID, productID string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	productID = strings.TrimSpace(productID)
	if userID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if productID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if len(productID) > maxProductIDLength {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "product id is too long")
	}
	return userID, productID, nil
}
