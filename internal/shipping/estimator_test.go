package shipping

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/internal/cart"
)

func items(pairs ...any) []cart.LineItem {
	out := []cart.LineItem{}
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, cart.LineItem{
			ProductID: "p",
			Price:     decimal.RequireFromString(pairs[i].(string)),
			Quantity:  pairs[i+1].(int),
		})
	}
	return out
}

func TestEstimate(t *testing.T) {
	t.Parallel()

	e := NewEstimator("US")
	cases := []struct {
		name    string
		items   []cart.LineItem
		country string
		want    string
	}{
		{"domestic single item uses value floor", items("20.00", 1), "US", "8.98"},
		{"domestic percentage above floor", items("30.00", 2), "US", "13.79"},
		{"domestic at threshold still charged", items("75.00", 1), "US", "10.99"},
		{"domestic above threshold free value adj", items("40.00", 2), "us", "8.99"},
		{"domestic three items", items("30.00", 3), "US", "12.99"},
		{"canada modifier", items("20.00", 1), "CA", "14.99"},
		{"uk modifier", items("20.00", 1), "GB", "17.99"},
		{"unlisted country default modifier", items("20.00", 2), "BR", "30.09"},
		{"japan", items("20.00", 1), "JP", "19.49"},
	}
	for _, tc := range cases {
		got := e.Estimate(tc.items, tc.country)
		if got.String() != tc.want {
			t.Fatalf("%s: expected %s got %s", tc.name, tc.want, got)
		}
	}
}

func TestDomesticCheaperThanInternational(t *testing.T) {
	t.Parallel()

	e := NewEstimator("")
	cartItems := items("20.00", 1)
	domestic := e.Estimate(cartItems, "US")
	intl := e.Estimate(cartItems, "GB")
	if domestic.LessThan(valueFloor) {
		t.Fatalf("domestic rate %s below floor", domestic)
	}
	if !domestic.LessThan(intl) {
		t.Fatalf("expected domestic %s < international %s", domestic, intl)
	}
}

func TestQuotes(t *testing.T) {
	t.Parallel()

	e := NewEstimator("US")
	domestic := e.Quotes(items("20.00", 1), "US")
	if len(domestic) != 2 {
		t.Fatalf("expected 2 domestic quotes got %d", len(domestic))
	}
	if domestic[0].Name != "Standard Shipping" || domestic[0].EstimatedDays != "5-7 business days" {
		t.Fatalf("unexpected standard quote %+v", domestic[0])
	}
	if domestic[1].Rate.String() != "22.45" || domestic[1].EstimatedDays != "2-3 business days" {
		t.Fatalf("unexpected express quote %+v", domestic[1])
	}

	intl := e.Quotes(items("20.00", 1), "GB")
	if intl[0].Name != "International Standard" || intl[0].EstimatedDays != "10-20 business days" {
		t.Fatalf("unexpected intl standard %+v", intl[0])
	}
	if intl[1].Rate.String() != "32.38" || intl[1].EstimatedDays != "5-10 business days" {
		t.Fatalf("unexpected intl express %+v", intl[1])
	}
	for _, q := range append(domestic, intl...) {
		if q.Source != SourceEstimate {
			t.Fatalf("expected estimate source, got %q", q.Source)
		}
	}
}

func TestDeliveryWindowAndCountryCode(t *testing.T) {
	t.Parallel()

	if got := DeliveryWindow(3, 3); got != "3 business days" {
		t.Fatalf("unexpected window %q", got)
	}
	if got := DeliveryWindow(4, 8); got != "4-8 business days" {
		t.Fatalf("unexpected window %q", got)
	}

	cases := map[string]string{
		"United States":  "US",
		"united kingdom": "GB",
		" Japan ":        "JP",
		"de":             "DE",
		"Narnia":         "US",
	}
	for in, want := range cases {
		if got := CountryCode(in); got != want {
			t.Fatalf("CountryCode(%q)=%q want %q", in, got, want)
		}
	}
}
