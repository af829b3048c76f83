package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/api/middleware"
	cartsvc "github.com/praytees/storefront/internal/cart"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
)

type stubCartService struct {
	cart        *cartsvc.Cart
	err         error
	lastSession string
	lastKey     cartsvc.Key
	lastQty     int
	lastSize    string
	cleared     bool
}

func (s *stubCartService) Get(ctx context.Context, sessionID string) (*cartsvc.Cart, error) {
	s.lastSession = sessionID
	return s.cart, s.err
}

func (s *stubCartService) Add(ctx context.Context, sessionID string, key cartsvc.Key) (*cartsvc.Cart, error) {
	s.lastSession, s.lastKey = sessionID, key
	return s.cart, s.err
}

func (s *stubCartService) Switch(ctx context.Context, sessionID string, from cartsvc.Key, size, color string) (*cartsvc.Cart, error) {
	s.lastSession, s.lastKey, s.lastSize = sessionID, from, size
	return s.cart, s.err
}

func (s *stubCartService) Remove(ctx context.Context, sessionID string, key cartsvc.Key) (*cartsvc.Cart, error) {
	s.lastSession, s.lastKey = sessionID, key
	return s.cart, s.err
}

func (s *stubCartService) SetQuantity(ctx context.Context, sessionID string, key cartsvc.Key, quantity int) (*cartsvc.Cart, error) {
	s.lastSession, s.lastKey, s.lastQty = sessionID, key, quantity
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, sessionID string) error {
	s.lastSession = sessionID
	s.cleared = true
	return s.err
}

func sampleCart() *cartsvc.Cart {
	return &cartsvc.Cart{
		SessionID: "sess-1",
		Items: []cartsvc.LineItem{{
			ProductID: "101",
			Name:      "Faith Tee",
			Size:      "M",
			Color:     "Black",
			Price:     decimal.RequireFromString("24.99"),
			Quantity:  2,
			VariantID: 5001,
		}},
		ItemCount: 2,
		Total:     decimal.RequireFromString("49.98"),
	}
}

func withSession(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))
}

func TestCartFetchSuccess(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	req := withSession(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			SessionID string          `json:"session_id"`
			ItemCount int             `json:"item_count"`
			Total     decimal.Decimal `json:"total"`
			Items     []struct {
				ProductID string          `json:"product_id"`
				Subtotal  decimal.Decimal `json:"subtotal"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID != "sess-1" || envelope.Data.ItemCount != 2 || envelope.Data.Total.String() != "49.98" {
		t.Fatalf("unexpected cart %+v", envelope.Data)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].Subtotal.String() != "49.98" {
		t.Fatalf("unexpected items %+v", envelope.Data.Items)
	}
}

func TestCartRequiresSession(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemTrimsKey(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	body := strings.NewReader(`{"product_id":" 101 ","size":"M","color":"Black"}`)
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body))
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	want := cartsvc.Key{ProductID: "101", Size: "M", Color: "Black"}
	if svc.lastKey != want || svc.lastSession != "sess-1" {
		t.Fatalf("unexpected call key=%+v session=%s", svc.lastKey, svc.lastSession)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"size":"M"}`)))
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastSession != "" {
		t.Fatalf("service should not be called for invalid payloads")
	}
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"999"}`)))
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartUpdateItemAcceptsZeroQuantity(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	body := strings.NewReader(`{"product_id":"101","size":"M","color":"Black","quantity":0}`)
	req := withSession(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items", body))
	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastQty != 0 || svc.lastKey.ProductID != "101" {
		t.Fatalf("unexpected call qty=%d key=%+v", svc.lastQty, svc.lastKey)
	}
}

func TestCartUpdateItemNegativeQuantityRemoves(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	body := strings.NewReader(`{"product_id":"101","size":"M","color":"Black","quantity":-1}`)
	req := withSession(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items", body))
	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastQty != -1 || svc.lastKey.Size != "M" {
		t.Fatalf("unexpected call qty=%d key=%+v", svc.lastQty, svc.lastKey)
	}
}

func TestCartUpdateItemRequiresQuantity(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	req := withSession(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items", strings.NewReader(`{"product_id":"101"}`)))
	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartSwitchItem(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	body := strings.NewReader(`{"from":{"product_id":"101","size":"M","color":"Black"},"size":"L","color":"Black"}`)
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items/switch", body))
	resp := httptest.NewRecorder()
	CartSwitchItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastKey.Size != "M" || svc.lastSize != "L" {
		t.Fatalf("unexpected switch from=%+v to=%s", svc.lastKey, svc.lastSize)
	}
}

func TestCartClearReturnsEmptyCart(t *testing.T) {
	svc := &stubCartService{}
	req := withSession(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil))
	resp := httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.cleared {
		t.Fatalf("expected clear to be called")
	}
	var envelope struct {
		Data struct {
			Items     []json.RawMessage `json:"items"`
			ItemCount int               `json:"item_count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Items == nil || len(envelope.Data.Items) != 0 || envelope.Data.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", envelope.Data)
	}
}
