package checkout

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/praytees/storefront/pkg/money"
)

const (
	shippingLineName        = "Shipping"
	shippingLineDescription = "Standard shipping"
	phoneFieldKey           = "phone"
	phoneFieldLabel         = "Phone Number"
)

// SessionOptions are the storefront-wide checkout settings.
type SessionOptions struct {
	Currency         string
	SuccessURL       string
	CancelURL        string
	AllowedCountries []string
	AutomaticTax     bool
}

func sessionParams(payload Payload, cartSessionID string, opts SessionOptions) *stripe.CheckoutSessionParams {
	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "usd"
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(payload.Items)+1)
	for _, item := range payload.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String(item.Name),
			Description: stripe.String(item.Size + " • " + item.Color),
			Metadata: map[string]string{
				"printful_variant_id": variantMetadata(item.VariantID),
				"size":                item.Size,
				"color":               item.Color,
			},
		}
		if item.Image != "" {
			product.Images = stripe.StringSlice([]string{item.Image})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(money.ToCents(item.Price)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	if payload.Shipping.GreaterThan(decimal.Zero) {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(shippingLineName),
					Description: stripe.String(shippingLineDescription),
				},
				UnitAmount: stripe.Int64(money.ToCents(payload.Shipping)),
			},
			Quantity: stripe.Int64(1),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		LineItems:                lineItems,
		SuccessURL:               stripe.String(opts.SuccessURL),
		CancelURL:                stripe.String(opts.CancelURL),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AutomaticTax:             &stripe.CheckoutSessionAutomaticTaxParams{Enabled: stripe.Bool(opts.AutomaticTax)},
	}
	if payload.Customer.Email != "" {
		params.CustomerEmail = stripe.String(payload.Customer.Email)
	}
	if len(opts.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(opts.AllowedCountries),
		}
	}
	if cartSessionID != "" {
		params.ClientReferenceID = stripe.String(cartSessionID)
		params.AddMetadata("cart_session_id", cartSessionID)
	}
	params.AddMetadata("customer_phone", payload.Customer.Phone)
	params.AddMetadata("order_notes", payload.Customer.Notes)
	if payload.Customer.Phone != "" {
		params.CustomFields = []*stripe.CheckoutSessionCustomFieldParams{{
			Key: stripe.String(phoneFieldKey),
			Label: &stripe.CheckoutSessionCustomFieldLabelParams{
				Type:   stripe.String("custom"),
				Custom: stripe.String(phoneFieldLabel),
			},
			Type:     stripe.String("text"),
			Optional: stripe.Bool(false),
		}}
	}
	return params
}

func variantMetadata(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
