package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stripe/stripe-go/v84"

	"github.com/praytees/storefront/api/controllers"
	cartcontrollers "github.com/praytees/storefront/api/controllers/cart"
	webhookcontrollers "github.com/praytees/storefront/api/controllers/webhooks"
	"github.com/praytees/storefront/api/middleware"
	"github.com/praytees/storefront/internal/cart"
	"github.com/praytees/storefront/internal/catalog"
	"github.com/praytees/storefront/internal/checkout"
	"github.com/praytees/storefront/internal/contact"
	"github.com/praytees/storefront/internal/shipping"
	"github.com/praytees/storefront/internal/wishlist"
	"github.com/praytees/storefront/pkg/config"
	"github.com/praytees/storefront/pkg/db"
	"github.com/praytees/storefront/pkg/db/models"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/metrics"
	"github.com/praytees/storefront/pkg/redis"
)

// Store is the slice of the redis client the HTTP layer needs.
type Store interface {
	redis.Pinger
	middleware.ResponseStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type ProductSource interface {
	Products(ctx context.Context) []*catalog.Product
	Product(ctx context.Context, id catalog.ProductID) (*catalog.Product, bool)
}

type ContactService interface {
	Submit(ctx context.Context, clientKey string, sub contact.Submission) (*models.ContactMessage, error)
}

type StripeVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

type StripeEventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// Params collects everything the router wires into handlers.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    Store
	Metrics  *metrics.StorefrontMetrics
	Gatherer prometheus.Gatherer

	Catalog  ProductSource
	Resolver *catalog.Resolver
	Cart     cart.Service
	Shipping shipping.Service
	Checkout checkout.Service
	Wishlist wishlist.Service
	Contact  ContactService

	StripeVerifier StripeVerifier
	StripeWebhook  webhookcontrollers.StripeWebhookService
	StripeGuard    StripeEventGuard
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis, logg))
	})

	shippingLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("shipping", cfg.RateLimit.Window, cfg.RateLimit.ShippingIPLimit), p.Redis, logg)
	checkoutLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.Window, cfg.RateLimit.CheckoutIPLimit), p.Redis, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhook, p.StripeVerifier, p.StripeGuard, logg))

		r.Get("/products", controllers.ProductList(p.Catalog, p.Resolver, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(p.Catalog, p.Resolver, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(logg))
			r.Use(middleware.Idempotency(p.Redis, logg))

			r.Get("/cart", cartcontrollers.CartFetch(p.Cart, logg))
			r.Delete("/cart", cartcontrollers.CartClear(p.Cart, logg))
			r.Post("/cart/items", cartcontrollers.CartAddItem(p.Cart, logg))
			r.Patch("/cart/items", cartcontrollers.CartUpdateItem(p.Cart, logg))
			r.Delete("/cart/items", cartcontrollers.CartRemoveItem(p.Cart, logg))
			r.Post("/cart/items/switch", cartcontrollers.CartSwitchItem(p.Cart, logg))

			r.With(shippingLimit).Post("/shipping/rates", controllers.ShippingRates(p.Shipping, p.Cart, logg))
			r.With(shippingLimit).Post("/shipping/estimate", controllers.ShippingEstimate(p.Shipping, p.Cart, logg))

			r.With(checkoutLimit).Post("/checkout", controllers.CheckoutCreateSession(p.Checkout, logg))
			r.Post("/contact", controllers.ContactSubmit(p.Contact, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth, logg))
			r.Use(middleware.Idempotency(p.Redis, logg))
			r.Get("/wishlist", controllers.WishlistList(p.Wishlist, logg))
			r.Post("/wishlist", controllers.WishlistAdd(p.Wishlist, logg))
			r.Get("/wishlist/{productId}", controllers.WishlistMembership(p.Wishlist, logg))
			r.Delete("/wishlist/{productId}", controllers.WishlistRemove(p.Wishlist, logg))
		})
	})

	return r
}
