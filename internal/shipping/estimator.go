package shipping

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/internal/cart"
	"github.com/praytees/storefront/pkg/money"
)

var (
	domesticBase      = money.MustParse("4.99")
	domesticPerItem   = money.MustParse("2.50")
	domesticSurcharge = money.MustParse("1.50")
	freeThreshold     = money.MustParse("75.00")
	valueFloor        = money.MustParse("3.99")
	valueRate         = money.MustParse("0.08")

	intlBase      = money.MustParse("14.99")
	intlPerItem   = money.MustParse("4.00")
	intlSurcharge = money.MustParse("2.50")

	expressDomestic = money.MustParse("2.5")
	expressIntl     = money.MustParse("1.8")

	// DefaultRate is charged when no quote can be produced at all.
	DefaultRate = money.MustParse("9.99")
)

var countryModifiers = map[string]decimal.Decimal{
	"CA": money.MustParse("1.0"),
	"GB": money.MustParse("1.2"),
	"AU": money.MustParse("1.5"),
	"DE": money.MustParse("1.1"),
	"FR": money.MustParse("1.1"),
	"JP": money.MustParse("1.3"),
}

var defaultModifier = money.MustParse("1.4")

// Estimator computes local shipping quotes from item count and cart value.
// It only stands in for the fulfillment platform's rate API.
type Estimator struct {
	homeCountry string
}

// NewEstimator treats homeCountry (default US) as the domestic destination.
func NewEstimator(homeCountry string) Estimator {
	homeCountry = strings.ToUpper(strings.TrimSpace(homeCountry))
	if homeCountry == "" {
		homeCountry = "US"
	}
	return Estimator{homeCountry: homeCountry}
}

// Domestic reports whether country is the home country.
func (e Estimator) Domestic(country string) bool {
	return strings.EqualFold(strings.TrimSpace(country), e.homeCountry)
}

// Estimate returns the standard rate for shipping items to country.
func (e Estimator) Estimate(items []cart.LineItem, country string) decimal.Decimal {
	weight, value := measure(items)
	if e.Domestic(country) {
		return domesticRate(weight, value)
	}
	return internationalRate(weight, country)
}

// Quotes builds the standard and express fallback options.
func (e Estimator) Quotes(items []cart.LineItem, country string) []Rate {
	standard := e.Estimate(items, country)
	if e.Domestic(country) {
		return []Rate{
			newRate("Standard Shipping", standard, 5, 7, SourceEstimate),
			newRate("Express Shipping", money.Round(standard.Mul(expressDomestic)), 2, 3, SourceEstimate),
		}
	}
	return []Rate{
		newRate("International Standard", standard, 10, 20, SourceEstimate),
		newRate("International Express", money.Round(standard.Mul(expressIntl)), 5, 10, SourceEstimate),
	}
}

func measure(items []cart.LineItem) (int64, decimal.Decimal) {
	var weight int64
	value := decimal.Zero
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		weight += int64(qty)
		value = value.Add(item.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return weight, value
}

func domesticRate(weight int64, value decimal.Decimal) decimal.Decimal {
	extra := decimal.NewFromInt(weight - 1)
	adj := decimal.Zero
	if !value.GreaterThan(freeThreshold) {
		adj = money.Max(valueFloor, value.Mul(valueRate))
	}
	rate := domesticBase.
		Add(extra.Mul(domesticPerItem)).
		Add(money.Max(decimal.Zero, extra.Mul(domesticSurcharge))).
		Add(adj)
	return money.Round(rate)
}

func internationalRate(weight int64, country string) decimal.Decimal {
	extra := decimal.NewFromInt(weight - 1)
	modifier, ok := countryModifiers[strings.ToUpper(strings.TrimSpace(country))]
	if !ok {
		modifier = defaultModifier
	}
	rate := intlBase.
		Add(extra.Mul(intlPerItem)).
		Add(money.Max(decimal.Zero, extra.Mul(intlSurcharge)))
	return money.Round(rate.Mul(modifier))
}
