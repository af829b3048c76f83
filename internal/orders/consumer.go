package orders

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/praytees/storefront/pkg/enums"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/idempotency"
	"github.com/praytees/storefront/pkg/logger"
	pspkg "github.com/praytees/storefront/pkg/pubsub"
)

const fulfillmentConsumer = "order-fulfillment"

type submitter interface {
	Submit(ctx context.Context, orderID uuid.UUID) error
}

// Consumer reads order.paid events and submits the orders for fulfillment.
type Consumer struct {
	fulfiller    submitter
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the fulfillment consumer.
func NewConsumer(fulfiller submitter, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if fulfiller == nil {
		return nil, fmt.Errorf("fulfiller required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		fulfiller:    fulfiller,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes[pspkg.AttrEventType]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderPaid) {
		c.logg.Info(logCtx, "skipping non order.paid event")
		return processResult{ack: true}
	}

	envelope, err := pspkg.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	var payload PaidEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		c.logg.Error(logCtx, "invalid order id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithOrderID(logCtx, orderID.String())

	already, err := c.idempotency.Seen(ctx, fulfillmentConsumer, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.fulfiller.Submit(ctx, orderID); err != nil {
		if !pkgerrors.Retryable(err) {
			c.logg.Error(logCtx, "fulfillment rejected", err)
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "fulfillment failed", err)
		_ = c.idempotency.Forget(ctx, fulfillmentConsumer, envelope.EventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}
