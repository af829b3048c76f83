package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/praytees/storefront/pkg/enums"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/idempotency"
	pspkg "github.com/praytees/storefront/pkg/pubsub"
)

type memoryIdempotencyStore struct {
	data map[string]string
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

type recordingSubmitter struct {
	calls []uuid.UUID
	err   error
}

func (r *recordingSubmitter) Submit(ctx context.Context, orderID uuid.UUID) error {
	r.calls = append(r.calls, orderID)
	return r.err
}

func newTestConsumer(t *testing.T, sub *recordingSubmitter) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(&memoryIdempotencyStore{data: map[string]string{}}, time.Hour)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return &Consumer{fulfiller: sub, idempotency: manager, logg: testLogger()}
}

func paidMessage(t *testing.T, orderID string) *pubsub.Message {
	t.Helper()
	msg, err := pspkg.NewMessage(enums.EventOrderPaid, orderID, PaidEvent{OrderID: orderID, CheckoutSession: "cs_1"}, time.Now())
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	msg.ID = "m-1"
	return msg
}

func TestNewConsumerRequiresDependencies(t *testing.T) {
	if _, err := NewConsumer(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestConsumerSubmitsOnceForDuplicateDelivery(t *testing.T) {
	sub := &recordingSubmitter{}
	c := newTestConsumer(t, sub)
	orderID := uuid.New()
	msg := paidMessage(t, orderID.String())

	if res := c.process(context.Background(), msg); !res.ack {
		t.Fatalf("expected ack got %+v", res)
	}
	if res := c.process(context.Background(), msg); !res.ack {
		t.Fatalf("expected ack on redelivery got %+v", res)
	}
	if len(sub.calls) != 1 || sub.calls[0] != orderID {
		t.Fatalf("expected one submit for %s got %v", orderID, sub.calls)
	}
}

func TestConsumerNacksTransientFailureAndRetries(t *testing.T) {
	sub := &recordingSubmitter{err: pkgerrors.New(pkgerrors.CodeDependency, "printful down")}
	c := newTestConsumer(t, sub)
	msg := paidMessage(t, uuid.NewString())

	if res := c.process(context.Background(), msg); !res.nack {
		t.Fatalf("expected nack got %+v", res)
	}
	sub.err = nil
	if res := c.process(context.Background(), msg); !res.ack {
		t.Fatalf("expected ack after recovery got %+v", res)
	}
	if len(sub.calls) != 2 {
		t.Fatalf("expected redelivery to submit again, got %d calls", len(sub.calls))
	}
}

func TestConsumerAcksPermanentFailure(t *testing.T) {
	sub := &recordingSubmitter{err: pkgerrors.New(pkgerrors.CodeValidation, "no address")}
	c := newTestConsumer(t, sub)

	if res := c.process(context.Background(), paidMessage(t, uuid.NewString())); !res.ack {
		t.Fatalf("expected ack got %+v", res)
	}
}

func TestConsumerSkipsMalformedMessages(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("must not be called")}
	c := newTestConsumer(t, sub)

	cases := map[string]*pubsub.Message{
		"other event": {ID: "a", Attributes: map[string]string{pspkg.AttrEventType: "order.refunded"}},
		"bad body":    {ID: "b", Data: []byte("{"), Attributes: map[string]string{pspkg.AttrEventType: string(enums.EventOrderPaid)}},
		"bad order":   paidMessage(t, "not-a-uuid"),
	}
	for name, msg := range cases {
		if res := c.process(context.Background(), msg); !res.ack {
			t.Fatalf("%s: expected ack got %+v", name, res)
		}
	}
	if len(sub.calls) != 0 {
		t.Fatalf("expected no submits got %v", sub.calls)
	}
}
