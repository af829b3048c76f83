package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/praytees/storefront/pkg/logger"
)

// Payment sessions expire after 24 hours; anything still pending well past
// that never got its expiry webhook.
const defaultPendingOrderTTL = 48 * time.Hour

type pendingOrderExpirer interface {
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderExpiryJobParams configure the pending order sweep.
type OrderExpiryJobParams struct {
	Logger *logger.Logger
	Orders pendingOrderExpirer
	TTL    time.Duration
	Clock  func() time.Time
}

type orderExpiryJob struct {
	logg   *logger.Logger
	orders pendingOrderExpirer
	ttl    time.Duration
	now    func() time.Time
}

// NewOrderExpiryJob builds the job that expires abandoned pending orders.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &orderExpiryJob{logg: params.Logger, orders: params.Orders, ttl: ttl, now: clock}, nil
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	n, err := j.orders.ExpirePendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire pending orders: %w", err)
	}
	if n > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"expired": n,
			"cutoff":  cutoff.Format(time.RFC3339),
		}), "expired abandoned orders")
	}
	return nil
}
