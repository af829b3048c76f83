package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/praytees/storefront/pkg/enums"
	"github.com/praytees/storefront/pkg/logger"
)

// Envelope is the JSON body of every published domain event.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  enums.EventType `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

const (
	envelopeVersion = 1
	AttrEventType   = "event_type"
	AttrEventID     = "event_id"
	AttrAggregateID = "aggregate_id"
)

// Publisher is the narrow surface domain services publish through.
type Publisher interface {
	Publish(ctx context.Context, eventType enums.EventType, aggregateID string, data any) (string, error)
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// EventPublisher wraps a topic and blocks until the server acks each message.
type EventPublisher struct {
	topic topicPublisher
	now   func() time.Time
}

// NewEventPublisher returns nil when topic is nil so callers can treat
// publishing as disabled.
func NewEventPublisher(topic *pubsub.Publisher) *EventPublisher {
	if topic == nil {
		return nil
	}
	return &EventPublisher{topic: topic, now: time.Now}
}

// Publish wraps data in an Envelope and publishes it.
func (p *EventPublisher) Publish(ctx context.Context, eventType enums.EventType, aggregateID string, data any) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("publisher not configured")
	}
	msg, err := NewMessage(eventType, aggregateID, data, p.now())
	if err != nil {
		return "", err
	}
	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", eventType, err)
	}
	return id, nil
}

// NewMessage builds a Pub/Sub message carrying an Envelope.
func NewMessage(eventType enums.EventType, aggregateID string, data any, at time.Time) (*pubsub.Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	env := Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: at.UTC(),
		Data:       raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			AttrEventType:   string(eventType),
			AttrEventID:     env.EventID,
			AttrAggregateID: aggregateID,
		},
	}, nil
}

// DecodeEnvelope parses a message body produced by NewMessage.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventID == "" || env.EventType == "" {
		return Envelope{}, errors.New("envelope missing event id or type")
	}
	return env, nil
}

// LoggingPublisher records events in the log instead of publishing them. It
// backs local runs with STOREFRONT_FEATURE_PUBSUB=false.
type LoggingPublisher struct {
	logg *logger.Logger
}

func NewLoggingPublisher(logg *logger.Logger) *LoggingPublisher {
	return &LoggingPublisher{logg: logg}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType enums.EventType, aggregateID string, data any) (string, error) {
	id := uuid.NewString()
	if p != nil && p.logg != nil {
		p.logg.Info(p.logg.WithFields(ctx, map[string]any{
			"event_id":     id,
			"event_type":   string(eventType),
			"aggregate_id": aggregateID,
		}), "pubsub.publish.skipped")
	}
	return id, nil
}
