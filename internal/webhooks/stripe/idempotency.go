package stripewebhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/praytees/storefront/pkg/idempotency"
)

// IdempotencyGuard remembers delivered Stripe event ids so retries of an
// already handled event are acknowledged without side effects.
type IdempotencyGuard struct {
	manager *idempotency.Manager
	scope   string
}

func NewIdempotencyGuard(manager *idempotency.Manager, scope string) (*IdempotencyGuard, error) {
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{manager: manager, scope: scope}, nil
}

func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	seen, err := g.manager.Seen(ctx, g.scope, eventID)
	if err != nil {
		return false, fmt.Errorf("mark stripe event: %w", err)
	}
	return seen, nil
}

// Delete releases the mark after a failed delivery so Stripe's retry runs.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	return g.manager.Forget(ctx, g.scope, eventID)
}
