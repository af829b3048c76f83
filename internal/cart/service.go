package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/internal/catalog"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
)

// ProductLookup resolves catalog products by id.
type ProductLookup interface {
	Product(ctx context.Context, id catalog.ProductID) (*catalog.Product, bool)
}

// Cart is the API view of a session's ledger.
type Cart struct {
	SessionID string          `json:"session_id"`
	Items     []LineItem      `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// Service exposes cart operations scoped to a cart session.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Add(ctx context.Context, sessionID string, key Key) (*Cart, error)
	Switch(ctx context.Context, sessionID string, from Key, size, color string) (*Cart, error)
	Remove(ctx context.Context, sessionID string, key Key) (*Cart, error)
	SetQuantity(ctx context.Context, sessionID string, key Key, quantity int) (*Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// ServiceParams groups the cart service dependencies.
type ServiceParams struct {
	Store    Store
	Products ProductLookup
	Resolver *catalog.Resolver
	Logger   *logger.Logger
}

type service struct {
	store    Store
	products ProductLookup
	resolver *catalog.Resolver
	logg     *logger.Logger
	locks    *sessionLocks
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	return &service{
		store:    params.Store,
		products: params.Products,
		resolver: params.Resolver,
		logg:     params.Logger,
		locks:    newSessionLocks(),
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	ledger, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return view(sessionID, ledger), nil
}

func (s *service) Add(ctx context.Context, sessionID string, key Key) (*Cart, error) {
	if key.ProductID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	return s.mutate(ctx, sessionID, func(l *Ledger) error {
		p, err := s.product(ctx, key.ProductID)
		if err != nil {
			return err
		}
		item := l.Add(p, key.Size, key.Color)
		if s.logg != nil {
			s.logg.Debug(s.logg.WithCartSession(ctx, sessionID), fmt.Sprintf("cart add %s qty=%d", key.ProductID, item.Quantity))
		}
		return nil
	})
}

func (s *service) Switch(ctx context.Context, sessionID string, from Key, size, color string) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(l *Ledger) error {
		if !l.Contains(from) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		p, err := s.product(ctx, from.ProductID)
		if err != nil {
			return err
		}
		l.Switch(p, from, strings.TrimSpace(size), strings.TrimSpace(color))
		return nil
	})
}

func (s *service) Remove(ctx context.Context, sessionID string, key Key) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(l *Ledger) error {
		l.Remove(key)
		return nil
	})
}

func (s *service) SetQuantity(ctx context.Context, sessionID string, key Key, quantity int) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(l *Ledger) error {
		l.SetQuantity(key, quantity)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()
	return s.store.Delete(ctx, sessionID)
}

func (s *service) mutate(ctx context.Context, sessionID string, apply func(*Ledger) error) (*Cart, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	var ledger *Ledger
	_, err := s.store.Update(ctx, sessionID, func(snap Snapshot) (Snapshot, error) {
		ledger = Restore(s.resolver, snap)
		if err := apply(ledger); err != nil {
			return Snapshot{}, err
		}
		return ledger.Snapshot(), nil
	})
	if err != nil {
		return nil, err
	}
	return view(sessionID, ledger), nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Ledger, error) {
	snap, _, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return Restore(s.resolver, snap), nil
}

func (s *service) product(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products.Product(ctx, catalog.ProductID(id))
	if !ok || p == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"product_id": id})
	}
	return p, nil
}

func validateSession(sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart session")
	}
	return nil
}

func view(sessionID string, l *Ledger) *Cart {
	return &Cart{
		SessionID: sessionID,
		Items:     l.Items(),
		ItemCount: l.Count(),
		Total:     l.Total(),
	}
}
