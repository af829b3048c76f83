package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/api/middleware"
	"github.com/praytees/storefront/internal/cart"
	"github.com/praytees/storefront/internal/catalog"
	"github.com/praytees/storefront/internal/checkout"
	"github.com/praytees/storefront/internal/shipping"
	"github.com/praytees/storefront/pkg/config"
	"github.com/praytees/storefront/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type memoryStore struct {
	mu      sync.Mutex
	pingErr error
	data    map[string]string
	windows map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, windows: map[string]int64{}}
}

func (s *memoryStore) Ping(context.Context) error {
	return s.pingErr
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "storefront:idempotency:" + scope + ":" + id
}

func (s *memoryStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[scope]++
	return s.windows[scope] <= limit, s.windows[scope], nil
}

type stubCatalog []*catalog.Product

func (s stubCatalog) Products(context.Context) []*catalog.Product {
	return s
}

func (s stubCatalog) Product(_ context.Context, id catalog.ProductID) (*catalog.Product, bool) {
	for _, p := range s {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

type stubCart struct {
	sessions []string
}

func (s *stubCart) Get(_ context.Context, sessionID string) (*cart.Cart, error) {
	s.sessions = append(s.sessions, sessionID)
	return &cart.Cart{SessionID: sessionID}, nil
}

func (s *stubCart) Add(_ context.Context, sessionID string, _ cart.Key) (*cart.Cart, error) {
	return &cart.Cart{SessionID: sessionID}, nil
}

func (s *stubCart) Switch(_ context.Context, sessionID string, _ cart.Key, _, _ string) (*cart.Cart, error) {
	return &cart.Cart{SessionID: sessionID}, nil
}

func (s *stubCart) Remove(_ context.Context, sessionID string, _ cart.Key) (*cart.Cart, error) {
	return &cart.Cart{SessionID: sessionID}, nil
}

func (s *stubCart) SetQuantity(_ context.Context, sessionID string, _ cart.Key, _ int) (*cart.Cart, error) {
	return &cart.Cart{SessionID: sessionID}, nil
}

func (s *stubCart) Clear(context.Context, string) error {
	return nil
}

type stubShipping struct{}

func (stubShipping) Rates(context.Context, shipping.Address, []cart.LineItem) []shipping.Rate {
	return nil
}

func (stubShipping) EstimatedShipping(context.Context, []cart.LineItem, shipping.Address) decimal.Decimal {
	return decimal.NewFromInt(5)
}

type stubCheckout struct {
	calls int
}

func (s *stubCheckout) CreateSession(context.Context, checkout.Request) (*checkout.Session, error) {
	s.calls++
	return &checkout.Session{SessionID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "test", CORSOrigins: []string{"*"}},
		Auth: config.AuthConfig{JWTSecret: "router-secret", Audience: "authenticated"},
		RateLimit: config.RateLimitConfig{
			Window:          time.Minute,
			ShippingIPLimit: 1,
			CheckoutIPLimit: 5,
		},
	}
}

func newTestRouter(store *memoryStore, carts *stubCart, checkouts *stubCheckout) http.Handler {
	registry := prometheus.NewRegistry()
	return NewRouter(Params{
		Config:   testConfig(),
		DB:       stubPinger{},
		Redis:    store,
		Metrics:  metrics.NewStorefrontMetrics(registry),
		Gatherer: registry,
		Catalog:  stubCatalog{{ID: "101", Name: "Faith Tee"}},
		Resolver: catalog.NewResolver(nil, nil),
		Cart:     carts,
		Shipping: stubShipping{},
		Checkout: checkouts,
	})
}

func TestHealthEndpoints(t *testing.T) {
	store := newMemoryStore()
	router := newTestRouter(store, &stubCart{}, &stubCheckout{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", resp.Code)
	}

	store.pingErr = errors.New("redis down")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready with redis down: expected 503, got %d", resp.Code)
	}
}

func TestProductRoutes(t *testing.T) {
	router := newTestRouter(newMemoryStore(), &stubCart{}, &stubCheckout{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/101", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/999", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", resp.Code)
	}
}

func TestCartRoutesIssueSession(t *testing.T) {
	carts := &stubCart{}
	router := newTestRouter(newMemoryStore(), carts, &stubCheckout{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	issued := resp.Header().Get(middleware.CartSessionHeader)
	if issued == "" {
		t.Fatal("expected a cart session header")
	}
	if len(carts.sessions) != 1 || carts.sessions[0] != issued {
		t.Fatalf("service saw sessions %v, header %s", carts.sessions, issued)
	}
}

func TestWishlistRequiresAuth(t *testing.T) {
	router := newTestRouter(newMemoryStore(), &stubCart{}, &stubCheckout{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	checkouts := &stubCheckout{}
	router := newTestRouter(newMemoryStore(), &stubCart{}, checkouts)
	body := `{"customer":{"email":"buyer@example.com"}}`

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without key, got %d", resp.Code)
	}
	if checkouts.calls != 0 {
		t.Fatal("checkout ran without an idempotency key")
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "checkout-1")
		req.Header.Set(middleware.CartSessionHeader, "3f0c8a4e-3a4b-4a8e-9c55-9f1f0d7e2b11")
		resp = httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201, got %d (%s)", i, resp.Code, resp.Body.String())
		}
	}
	if checkouts.calls != 1 {
		t.Fatalf("expected replay to skip the service, calls=%d", checkouts.calls)
	}
}

func TestShippingRoutesAreRateLimited(t *testing.T) {
	router := newTestRouter(newMemoryStore(), &stubCart{}, &stubCheckout{})
	body := `{"recipient":{"country":"US"},"items":[{"product_id":"101","quantity":1,"price":24}]}`

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/estimate", strings.NewReader(body))
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(newMemoryStore(), &stubCart{}, &stubCheckout{})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "storefront_http_request_duration_seconds") {
		t.Fatalf("expected http metrics in exposition, got %s", resp.Body.String())
	}
}
