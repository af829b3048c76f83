package shipping

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	SourcePrintful = "printful"
	SourceEstimate = "estimate"
)

// Rate is one shipping option shown at checkout.
type Rate struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name"`
	Rate          decimal.Decimal `json:"rate"`
	Currency      string          `json:"currency"`
	EstimatedDays string          `json:"estimated_days"`
	MinDays       int             `json:"min_delivery_days"`
	MaxDays       int             `json:"max_delivery_days"`
	Source        string          `json:"source"`
}

func newRate(name string, amount decimal.Decimal, minDays, maxDays int, source string) Rate {
	return Rate{
		Name:          name,
		Rate:          amount,
		Currency:      "USD",
		EstimatedDays: DeliveryWindow(minDays, maxDays),
		MinDays:       minDays,
		MaxDays:       maxDays,
		Source:        source,
	}
}

// DeliveryWindow formats a delivery range as "N business days" or
// "min-max business days".
func DeliveryWindow(minDays, maxDays int) string {
	if minDays == maxDays {
		return fmt.Sprintf("%d business days", minDays)
	}
	return fmt.Sprintf("%d-%d business days", minDays, maxDays)
}
