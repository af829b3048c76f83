package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/praytees/storefront/api/middleware"
	"github.com/praytees/storefront/internal/wishlist"
	"github.com/praytees/storefront/pkg/pagination"
)

type stubWishlistService struct {
	liked    map[string]bool
	snapshot map[string]any
	params   pagination.Params
}

func newStubWishlist() *stubWishlistService {
	return &stubWishlistService{liked: map[string]bool{}}
}

func (s *stubWishlistService) Add(ctx context.Context, userID, productID string, snapshot map[string]any) error {
	s.liked[userID+"/"+productID] = true
	s.snapshot = snapshot
	return nil
}

func (s *stubWishlistService) Remove(ctx context.Context, userID, productID string) error {
	delete(s.liked, userID+"/"+productID)
	return nil
}

func (s *stubWishlistService) IsMember(ctx context.Context, userID, productID string) (bool, error) {
	return s.liked[userID+"/"+productID], nil
}

func (s *stubWishlistService) List(ctx context.Context, userID string, params pagination.Params) (wishlist.Page, error) {
	s.params = params
	return wishlist.Page{Items: []wishlist.Item{{ProductID: "101"}}, Total: 1}, nil
}

func wishlistRouter(svc wishlist.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user := req.Header.Get("X-Test-User"); user != "" {
				req = req.WithContext(middleware.WithUserID(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/v1/wishlist", WishlistList(svc, nil))
	r.Post("/api/v1/wishlist", WishlistAdd(svc, nil))
	r.Get("/api/v1/wishlist/{productId}", WishlistMembership(svc, nil))
	r.Delete("/api/v1/wishlist/{productId}", WishlistRemove(svc, nil))
	return r
}

func TestWishlistFlow(t *testing.T) {
	svc := newStubWishlist()
	router := wishlistRouter(svc)

	add := httptest.NewRequest(http.MethodPost, "/api/v1/wishlist", strings.NewReader(`{"product_id":"101","product":{"name":"Faith Tee"}}`))
	add.Header.Set("X-Test-User", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, add)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.snapshot["name"] != "Faith Tee" {
		t.Fatalf("snapshot not forwarded: %v", svc.snapshot)
	}

	check := httptest.NewRequest(http.MethodGet, "/api/v1/wishlist/101", nil)
	check.Header.Set("X-Test-User", "user-1")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, check)
	var membership struct {
		Data wishlistMembership `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&membership); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !membership.Data.Liked {
		t.Fatalf("expected product to be liked")
	}

	remove := httptest.NewRequest(http.MethodDelete, "/api/v1/wishlist/101", nil)
	remove.Header.Set("X-Test-User", "user-1")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, remove)
	if resp.Code != http.StatusOK || svc.liked["user-1/101"] {
		t.Fatalf("expected removal, code=%d", resp.Code)
	}
}

func TestWishlistListPagination(t *testing.T) {
	svc := newStubWishlist()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlist?limit=10&cursor=abc", nil)
	req.Header.Set("X-Test-User", "user-1")
	resp := httptest.NewRecorder()
	wishlistRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.params.Limit != 10 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.params)
	}

	bad := httptest.NewRequest(http.MethodGet, "/api/v1/wishlist?limit=1000", nil)
	bad.Header.Set("X-Test-User", "user-1")
	resp = httptest.NewRecorder()
	wishlistRouter(svc).ServeHTTP(resp, bad)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", resp.Code)
	}
}

func TestWishlistRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	wishlistRouter(newStubWishlist()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
