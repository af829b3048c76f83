package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusSubmitted, false},
		{OrderStatusPaid, OrderStatusSubmitted, true},
		{OrderStatusPaid, OrderStatusFulfillmentFailed, true},
		{OrderStatusFulfillmentFailed, OrderStatusSubmitted, true},
		{OrderStatusSubmitted, OrderStatusPaid, false},
		{OrderStatusExpired, OrderStatusPaid, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if s, err := ParseOrderStatus("paid"); err != nil || s != OrderStatusPaid {
		t.Fatalf("expected paid, got %q %v", s, err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if _, err := ParseEventType("order.paid"); err != nil {
		t.Fatalf("expected order.paid to parse: %v", err)
	}
}
