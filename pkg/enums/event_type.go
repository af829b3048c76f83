package enums

import "fmt"

// EventType names the messages published on the orders topic.
type EventType string

const (
	EventOrderPaid EventType = "order.paid"
)

var validEventTypes = []EventType{
	EventOrderPaid,
}

// IsValid reports whether the value is a known EventType.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEventType converts raw input into an EventType.
func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
