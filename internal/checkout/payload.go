package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/internal/cart"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/money"
)

// Item is one flattened cart line sent to the payment provider.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Image     string          `json:"image"`
	VariantID int64           `json:"variantId"`
}

// Customer is what the buyer typed into the checkout form.
type Customer struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Notes string `json:"notes,omitempty" validate:"max=1000"`
}

// Payload is the checkout request derived from a cart.
type Payload struct {
	Items    []Item          `json:"items"`
	Customer Customer        `json:"customer"`
	Shipping decimal.Decimal `json:"shipping"`
}

// Totals are the cent-rounded amounts shown before payment. TaxEstimated is
// set when the payment provider computes the tax that is actually charged.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Shipping     decimal.Decimal `json:"shipping"`
	Total        decimal.Decimal `json:"total"`
	TaxEstimated bool            `json:"tax_estimated,omitempty"`
}

// BeforeTax drops the tax line from t.
func (t Totals) BeforeTax() Totals {
	return Totals{
		Subtotal: t.Subtotal,
		Tax:      decimal.Zero,
		Shipping: t.Shipping,
		Total:    money.Round(t.Subtotal.Add(t.Shipping)),
	}
}

// ItemViolation names one field of one line that cannot be charged.
type ItemViolation struct {
	Index     int    `json:"index"`
	ProductID string `json:"product_id,omitempty"`
	Field     string `json:"field"`
}

// BuildPayload flattens cart lines into checkout items.
func BuildPayload(lines []cart.LineItem, customer Customer, shipping decimal.Decimal) Payload {
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
			Image:     line.Image,
			VariantID: line.VariantID,
		})
	}
	return Payload{
		Items: items,
		Customer: Customer{
			Email: strings.TrimSpace(customer.Email),
			Name:  strings.TrimSpace(customer.Name),
			Phone: strings.TrimSpace(customer.Phone),
			Notes: strings.TrimSpace(customer.Notes),
		},
		Shipping: shipping,
	}
}

// Validate ensures every item can be charged.
func Validate(items []Item) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	var violations []ItemViolation
	for i, item := range items {
		add := func(field string) {
			violations = append(violations, ItemViolation{Index: i, ProductID: item.ProductID, Field: field})
		}
		if strings.TrimSpace(item.ProductID) == "" {
			add("productId")
		}
		if strings.TrimSpace(item.Name) == "" {
			add("name")
		}
		if !item.Price.IsPositive() {
			add("price")
		}
		if item.Quantity <= 0 {
			add("quantity")
		}
		if strings.TrimSpace(item.Size) == "" {
			add("size")
		}
		if strings.TrimSpace(item.Color) == "" {
			add("color")
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid cart items: %d problem(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}

// ComputeTotals applies the tax rate to the subtotal. Each amount is rounded
// to cents independently.
func ComputeTotals(items []Item, shipping, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = money.Round(subtotal)
	tax := money.Round(subtotal.Mul(taxRate))
	shipping = money.Round(shipping)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    money.Round(subtotal.Add(tax).Add(shipping)),
	}
}
