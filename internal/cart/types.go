package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Key identifies a line item. Two selections of the same product with a
// different size or color are separate lines.
type Key struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// NewKey trims the parts of a key taken from user input.
func NewKey(productID, size, color string) Key {
	return Key{
		ProductID: strings.TrimSpace(productID),
		Size:      strings.TrimSpace(size),
		Color:     strings.TrimSpace(color),
	}
}

// LineItem is one cart line. Price, variant id, name and image are captured
// when the line is first added and are not re-resolved afterwards.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	VariantID int64           `json:"variant_id"`
}

func (li LineItem) Key() Key {
	return Key{ProductID: li.ProductID, Size: li.Size, Color: li.Color}
}

// Subtotal is price times quantity at full precision.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Snapshot is the serialisable form of a Ledger.
type Snapshot struct {
	Items []LineItem `json:"items"`
}
