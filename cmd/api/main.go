package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/praytees/storefront/api/routes"
	"github.com/praytees/storefront/internal/cart"
	"github.com/praytees/storefront/internal/catalog"
	"github.com/praytees/storefront/internal/checkout"
	"github.com/praytees/storefront/internal/contact"
	"github.com/praytees/storefront/internal/orders"
	"github.com/praytees/storefront/internal/shipping"
	stripewebhook "github.com/praytees/storefront/internal/webhooks/stripe"
	"github.com/praytees/storefront/internal/wishlist"
	"github.com/praytees/storefront/pkg/config"
	"github.com/praytees/storefront/pkg/db"
	"github.com/praytees/storefront/pkg/idempotency"
	"github.com/praytees/storefront/pkg/instance"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/metrics"
	"github.com/praytees/storefront/pkg/migrate"
	"github.com/praytees/storefront/pkg/printful"
	"github.com/praytees/storefront/pkg/pubsub"
	"github.com/praytees/storefront/pkg/redis"
	"github.com/praytees/storefront/pkg/stripe"
)

const (
	shutdownTimeout    = 15 * time.Second
	webhookGuardScope  = "stripe-webhook"
	readHeaderTimeout  = 10 * time.Second
	checkoutSuccessFmt = "%s/success?session_id={CHECKOUT_SESSION_ID}"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	publisher, closePublisher, err := newPublisher(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closePublisher()) }()

	storefrontMetrics := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)

	printfulClient, err := printful.NewClient(cfg.Printful.APIKey,
		printful.WithBaseURL(cfg.Printful.BaseURL),
		printful.WithStoreID(cfg.Printful.StoreID),
		printful.WithTimeout(cfg.Printful.Timeout),
	)
	if err != nil {
		return err
	}

	resolver := catalog.NewResolver(catalog.NewIndexCache(), catalog.NewKeywordFallback())
	source, err := catalog.NewSource(catalog.SourceParams{
		Fetcher:  catalog.NewPrintfulFetcher(printfulClient),
		Cache:    catalog.NewCache(cfg.Printful.CatalogTTL, nil),
		Observer: storefrontMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:    cartStore,
		Products: source,
		Resolver: resolver,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	shippingService, err := shipping.NewService(shipping.ServiceParams{
		API:       printfulClient,
		Products:  source,
		Resolver:  resolver,
		Estimator: shipping.NewEstimator(cfg.Shipping.HomeCountry),
		Observer:  storefrontMetrics,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Publisher: publisher,
		Carts:     cartStore,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Gateway:  stripeClient,
		Carts:    cartService,
		Shipping: shippingService,
		Orders:   ordersService,
		Observer: storefrontMetrics,
		Logger:   logg,
		Options: checkout.SessionOptions{
			Currency:         cfg.Stripe.Currency,
			SuccessURL:       successURL(cfg),
			CancelURL:        cancelURL(cfg),
			AllowedCountries: cfg.Checkout.AllowedCountries,
			AutomaticTax:     cfg.Checkout.AutomaticTax,
		},
		TaxRate:         cfg.Checkout.TaxRate,
		DefaultShipping: cfg.Checkout.DefaultShipping,
	})
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders: ordersService,
		Logger: logg,
	})
	if err != nil {
		return err
	}
	webhookManager, err := idempotency.NewManager(redisClient, cfg.Eventing.WebhookTTL)
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(webhookManager, webhookGuardScope)
	if err != nil {
		return err
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:   wishlist.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		return err
	}

	contactService, err := contact.NewService(contact.ServiceParams{
		Repo:    contact.NewRepository(dbClient.DB()),
		Limiter: redisClient,
		Limit:   cfg.Contact.RateLimit,
		Window:  cfg.Contact.RateWindow,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: readHeaderTimeout,
		Handler: routes.NewRouter(routes.Params{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Metrics:        storefrontMetrics,
			Gatherer:       prometheus.DefaultGatherer,
			Catalog:        source,
			Resolver:       resolver,
			Cart:           cartService,
			Shipping:       shippingService,
			Checkout:       checkoutService,
			Wishlist:       wishlistService,
			Contact:        contactService,
			StripeVerifier: stripeClient,
			StripeWebhook:  webhookService,
			StripeGuard:    webhookGuard,
		}),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(groupCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(groupCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		// Warm the catalog cache.
		if _, err := source.Refresh(groupCtx); err != nil {
			logg.Warn(logg.WithField(groupCtx, "error", err.Error()), "catalog.warmup.failed")
		}
		return nil
	})

	return group.Wait()
}

func newPublisher(ctx context.Context, cfg *config.Config, logg *logger.Logger) (pubsub.Publisher, func() error, error) {
	if !cfg.FeatureFlags.PubSub {
		logg.Warn(ctx, "pubsub disabled, order events will only be logged")
		return pubsub.NewLoggingPublisher(logg), func() error { return nil }, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return nil, nil, err
	}
	return pubsub.NewEventPublisher(client.OrdersPublisher()), client.Close, nil
}

func successURL(cfg *config.Config) string {
	if cfg.Stripe.SuccessURL != "" {
		return cfg.Stripe.SuccessURL
	}
	return fmt.Sprintf(checkoutSuccessFmt, strings.TrimRight(cfg.App.PublicURL, "/"))
}

func cancelURL(cfg *config.Config) string {
	if cfg.Stripe.CancelURL != "" {
		return cfg.Stripe.CancelURL
	}
	return strings.TrimRight(cfg.App.PublicURL, "/") + "/cart"
}
