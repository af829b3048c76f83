package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/internal/cart"
	"github.com/praytees/storefront/internal/catalog"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/money"
	"github.com/praytees/storefront/pkg/printful"
)

const (
	defaultAddress1 = "123 Main St"
	defaultCity     = "New York"
	defaultZip      = "10001"
)

// Address is the destination a quote is requested for.
type Address struct {
	CountryCode string `json:"country_code" validate:"required,len=2"`
	StateCode   string `json:"state_code,omitempty"`
	City        string `json:"city,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Address1    string `json:"address1,omitempty"`
}

// RatesAPI is the fulfillment platform's rate endpoint.
type RatesAPI interface {
	ShippingRates(ctx context.Context, req printful.ShippingRatesRequest) ([]printful.ShippingRate, error)
}

// ProductLookup resolves products for line items missing a variant id.
type ProductLookup interface {
	Product(ctx context.Context, id catalog.ProductID) (*catalog.Product, bool)
}

// QuoteObserver counts which source served a quote.
type QuoteObserver interface {
	ShippingQuote(source string)
}

// Service quotes shipping, preferring the platform's live rates.
type Service interface {
	Rates(ctx context.Context, addr Address, items []cart.LineItem) []Rate
	EstimatedShipping(ctx context.Context, items []cart.LineItem, addr Address) decimal.Decimal
}

// ServiceParams groups the shipping service dependencies.
type ServiceParams struct {
	API       RatesAPI
	Products  ProductLookup
	Resolver  *catalog.Resolver
	Estimator Estimator
	Observer  QuoteObserver
	Logger    *logger.Logger
}

type service struct {
	api       RatesAPI
	products  ProductLookup
	resolver  *catalog.Resolver
	estimator Estimator
	observer  QuoteObserver
	logg      *logger.Logger
}

// NewService builds a shipping service. API may be nil, in which case every
// quote comes from the estimator.
func NewService(params ServiceParams) (Service, error) {
	if params.Estimator.homeCountry == "" {
		return nil, fmt.Errorf("shipping estimator required")
	}
	resolver := params.Resolver
	if resolver == nil {
		resolver = catalog.NewResolver(nil, nil)
	}
	return &service{
		api:       params.API,
		products:  params.Products,
		resolver:  resolver,
		estimator: params.Estimator,
		observer:  params.Observer,
		logg:      params.Logger,
	}, nil
}

// Rates never fails: platform errors or an unusable response fall back to
// the estimator's quotes.
func (s *service) Rates(ctx context.Context, addr Address, items []cart.LineItem) []Rate {
	addr.CountryCode = strings.ToUpper(strings.TrimSpace(addr.CountryCode))
	rates, err := s.remoteRates(ctx, addr, items)
	if err == nil {
		s.observe(SourcePrintful)
		return rates
	}

	if s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"country": addr.CountryCode,
			"items":   len(items),
			"error":   err.Error(),
		}), "shipping.rates_fallback")
	}
	s.observe(SourceEstimate)
	return s.estimator.Quotes(items, addr.CountryCode)
}

// EstimatedShipping picks one amount for checkout: the first standard or
// ground rate, else the cheapest, else DefaultRate.
func (s *service) EstimatedShipping(ctx context.Context, items []cart.LineItem, addr Address) decimal.Decimal {
	if strings.TrimSpace(addr.CountryCode) == "" {
		addr.CountryCode = s.estimator.homeCountry
	}
	return pickStandard(s.Rates(ctx, addr, items))
}

func pickStandard(rates []Rate) decimal.Decimal {
	if len(rates) == 0 {
		return DefaultRate
	}
	for _, r := range rates {
		name := strings.ToLower(r.Name)
		if strings.Contains(name, "standard") || strings.Contains(name, "ground") {
			return r.Rate
		}
	}
	cheapest := rates[0]
	for _, r := range rates[1:] {
		if r.Rate.LessThan(cheapest.Rate) {
			cheapest = r
		}
	}
	return cheapest.Rate
}

var errInvalidRates = errors.New("rate response has no usable rates")

func (s *service) remoteRates(ctx context.Context, addr Address, items []cart.LineItem) ([]Rate, error) {
	if s.api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping rate api not configured")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items to quote")
	}

	req := printful.ShippingRatesRequest{
		Recipient: printful.Recipient{
			Address1:    orDefault(addr.Address1, defaultAddress1),
			City:        orDefault(addr.City, defaultCity),
			StateCode:   strings.TrimSpace(addr.StateCode),
			CountryCode: addr.CountryCode,
			Zip:         orDefault(addr.Zip, defaultZip),
		},
		Items: make([]printful.ItemQuantity, 0, len(items)),
	}
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		req.Items = append(req.Items, printful.ItemQuantity{
			VariantID: s.variantFor(ctx, item),
			Quantity:  qty,
		})
	}

	raw, err := s.api.ShippingRates(ctx, req)
	if err != nil {
		return nil, err
	}
	return convertRates(raw)
}

func convertRates(raw []printful.ShippingRate) ([]Rate, error) {
	rates := make([]Rate, 0, len(raw))
	for _, r := range raw {
		amount, ok := money.Parse(r.Rate)
		if !ok || strings.TrimSpace(r.Name) == "" {
			return nil, errInvalidRates
		}
		rate := newRate(r.Name, amount, r.MinDeliveryDays, r.MaxDeliveryDays, SourcePrintful)
		rate.ID = r.ID
		if r.Currency != "" {
			rate.Currency = r.Currency
		}
		rates = append(rates, rate)
	}
	if len(rates) == 0 {
		return nil, errInvalidRates
	}
	return rates, nil
}

// variantFor picks the variant sent to the platform: the line's own id, then
// the product's mapping, then the name fallback.
func (s *service) variantFor(ctx context.Context, item cart.LineItem) int64 {
	if item.VariantID != 0 {
		return item.VariantID
	}
	if s.products != nil {
		if p, ok := s.products.Product(ctx, catalog.ProductID(item.ProductID)); ok {
			return catalog.ShippableVariantID(p, s.resolver.Indexes().Get(p), item.Size, item.Color)
		}
	}
	return catalog.FallbackVariantID(item.Name)
}

func (s *service) observe(source string) {
	if s.observer != nil {
		s.observer.ShippingQuote(source)
	}
}

func orDefault(v, def string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return def
}
