package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/pkg/money"
)

// PriceFallback supplies a price when a product carries no usable variant price.
// Implementations must always return a value.
type PriceFallback interface {
	FallbackPrice(productName string) decimal.Decimal
}

// KeywordPrice maps a lowercase name fragment to a price.
type KeywordPrice struct {
	Keyword string
	Price   decimal.Decimal
}

// KeywordFallback prices a product by the first keyword found in its name.
type KeywordFallback struct {
	Rules   []KeywordPrice
	Default decimal.Decimal
}

// DefaultPrice is charged when nothing else matches.
var DefaultPrice = money.MustParse("24.99")

// NewKeywordFallback returns the storefront's name table. Order matters:
// "Prayer Hoodie" must resolve to the hoodie price.
func NewKeywordFallback() KeywordFallback {
	return KeywordFallback{
		Rules: []KeywordPrice{
			{Keyword: "hoodie", Price: money.MustParse("49.99")},
			{Keyword: "tank", Price: money.MustParse("22.99")},
			{Keyword: "prayer", Price: money.MustParse("49.99")},
			{Keyword: "chosen", Price: money.MustParse("26.99")},
			{Keyword: "pray without", Price: money.MustParse("28.99")},
			{Keyword: "saved", Price: money.MustParse("52.99")},
		},
		Default: DefaultPrice,
	}
}

// FallbackPrice implements PriceFallback.
func (k KeywordFallback) FallbackPrice(productName string) decimal.Decimal {
	name := strings.ToLower(productName)
	for _, rule := range k.Rules {
		if rule.Keyword != "" && strings.Contains(name, rule.Keyword) {
			return rule.Price
		}
	}
	return k.Default
}

// Resolver picks the unit price for a (product, size, color) selection.
type Resolver struct {
	indexes  *IndexCache
	fallback PriceFallback
}

// NewResolver builds a resolver. A nil cache or fallback gets the defaults.
func NewResolver(indexes *IndexCache, fallback PriceFallback) *Resolver {
	if indexes == nil {
		indexes = NewIndexCache()
	}
	if fallback == nil {
		fallback = NewKeywordFallback()
	}
	return &Resolver{indexes: indexes, fallback: fallback}
}

// Indexes exposes the cache the resolver reads from.
func (r *Resolver) Indexes() *IndexCache {
	return r.indexes
}

// Resolve returns the unit price. Exact variant price first, then the
// product's base price chain.
func (r *Resolver) Resolve(p *Product, size, color string) decimal.Decimal {
	if p != nil {
		if price, ok := r.indexes.Get(p).Price(size, color); ok {
			return price
		}
	}
	return r.BasePrice(p)
}

// BasePrice is the price shown before a size and color are chosen: the first
// variant, then any variant with a price, then the name fallback.
func (r *Resolver) BasePrice(p *Product) decimal.Decimal {
	if p == nil {
		return r.fallback.FallbackPrice("")
	}
	if p.FirstVariant != nil {
		if price, ok := money.Parse(p.FirstVariant.RetailPrice); ok {
			return price
		}
	}
	for _, v := range p.Variants {
		if price, ok := money.Parse(v.RetailPrice); ok {
			return price
		}
	}
	return r.fallback.FallbackPrice(p.Name)
}
