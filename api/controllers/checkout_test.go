package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/api/middleware"
	"github.com/praytees/storefront/internal/cart"
	checkoutsvc "github.com/praytees/storefront/internal/checkout"
	"github.com/praytees/storefront/internal/shipping"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
)

type stubCheckoutService struct {
	session *checkoutsvc.Session
	err     error
	last    checkoutsvc.Request
	calls   int
}

func (s *stubCheckoutService) CreateSession(ctx context.Context, req checkoutsvc.Request) (*checkoutsvc.Session, error) {
	s.calls++
	s.last = req
	return s.session, s.err
}

func checkoutRequestWithSession(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	return req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))
}

func TestCheckoutCreateSessionSuccess(t *testing.T) {
	svc := &stubCheckoutService{session: &checkoutsvc.Session{SessionID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}}
	body := `{"customer":{"email":"buyer@example.com","name":"Ruth"},"recipient":{"country":"Canada","zip":"M5V"},"shipping":12.5}`
	resp := httptest.NewRecorder()
	CheckoutCreateSession(svc, nil).ServeHTTP(resp, checkoutRequestWithSession(body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.last.CartSessionID != "sess-1" || svc.last.Customer.Email != "buyer@example.com" {
		t.Fatalf("unexpected request %+v", svc.last)
	}
	if svc.last.Address == nil || svc.last.Address.CountryCode != "CA" {
		t.Fatalf("expected resolved country code, got %+v", svc.last.Address)
	}
	if svc.last.Shipping == nil || !svc.last.Shipping.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("expected shipping override, got %v", svc.last.Shipping)
	}
	var envelope struct {
		Data struct {
			SessionID string `json:"sessionId"`
			URL       string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.SessionID != "cs_test_1" || envelope.Data.URL == "" {
		t.Fatalf("unexpected session %+v", envelope.Data)
	}
}

func TestCheckoutCreateSessionValidation(t *testing.T) {
	tests := map[string]string{
		"missing email":     `{"customer":{"name":"Ruth"}}`,
		"bad email":         `{"customer":{"email":"nope"}}`,
		"negative shipping": `{"customer":{"email":"buyer@example.com"},"shipping":-1}`,
		"unknown field":     `{"customer":{"email":"buyer@example.com"},"coupon":"FREE"}`,
	}
	for name, body := range tests {
		svc := &stubCheckoutService{}
		resp := httptest.NewRecorder()
		CheckoutCreateSession(svc, nil).ServeHTTP(resp, checkoutRequestWithSession(body))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", name, resp.Code)
		}
		if svc.calls != 0 {
			t.Fatalf("%s: service should not be called", name)
		}
	}
}

func TestCheckoutCreateSessionMapsServiceErrors(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeDependency, "payment provider unavailable")}
	resp := httptest.NewRecorder()
	CheckoutCreateSession(svc, nil).ServeHTTP(resp, checkoutRequestWithSession(`{"customer":{"email":"buyer@example.com"}}`))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

type stubShippingService struct {
	addr  shipping.Address
	items []cart.LineItem
}

func (s *stubShippingService) Rates(ctx context.Context, addr shipping.Address, items []cart.LineItem) []shipping.Rate {
	s.addr, s.items = addr, items
	return []shipping.Rate{{Name: "Flat Rate", Rate: decimal.RequireFromString("4.99"), Currency: "USD", Source: shipping.SourcePrintful}}
}

func (s *stubShippingService) EstimatedShipping(ctx context.Context, items []cart.LineItem, addr shipping.Address) decimal.Decimal {
	s.addr, s.items = addr, items
	return decimal.RequireFromString("4.99")
}

type stubCartReader struct {
	cart *cart.Cart
}

func (s stubCartReader) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return s.cart, nil
}

func TestShippingRatesUsesBodyItems(t *testing.T) {
	svc := &stubShippingService{}
	body := `{"recipient":{"country":"US","state_code":"TX","zip":"73301"},"items":[{"product_id":"101","quantity":2,"variant_id":5001,"price":24}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/rates", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ShippingRates(svc, nil, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.addr.CountryCode != "US" || svc.addr.StateCode != "TX" {
		t.Fatalf("unexpected address %+v", svc.addr)
	}
	if len(svc.items) != 1 || svc.items[0].VariantID != 5001 || svc.items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", svc.items)
	}
}

func TestShippingEstimateDefaultsToCart(t *testing.T) {
	svc := &stubShippingService{}
	carts := stubCartReader{cart: &cart.Cart{SessionID: "sess-1", Items: []cart.LineItem{{ProductID: "101", Quantity: 1}}}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/estimate", strings.NewReader(`{"recipient":{"country":"Germany"}}`))
	req = req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))
	resp := httptest.NewRecorder()
	ShippingEstimate(svc, carts, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.addr.CountryCode != "DE" || len(svc.items) != 1 {
		t.Fatalf("expected cart items for DE, got %+v %+v", svc.addr, svc.items)
	}
	var envelope struct {
		Data struct {
			Shipping decimal.Decimal `json:"shipping"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Shipping.String() != "4.99" {
		t.Fatalf("unexpected estimate %s", envelope.Data.Shipping)
	}
}

func TestShippingRatesRejectsEmptyCart(t *testing.T) {
	carts := stubCartReader{cart: &cart.Cart{SessionID: "sess-1"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/rates", strings.NewReader(`{"recipient":{"country":"US"}}`))
	req = req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))
	resp := httptest.NewRecorder()
	ShippingRates(&stubShippingService{}, carts, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
