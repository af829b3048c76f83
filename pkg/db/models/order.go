package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/praytees/storefront/pkg/enums"
	"github.com/praytees/storefront/pkg/types"
)

// Order is created pending when a payment session opens and moves to paid
// once the payment provider confirms it.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutSession string               `gorm:"column:checkout_session_id;not null;uniqueIndex:orders_checkout_session_id_key"`
	CartSessionID   *string              `gorm:"column:cart_session_id"`
	Status          enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	CustomerEmail   string               `gorm:"column:customer_email;not null"`
	CustomerName    string               `gorm:"column:customer_name;not null;default:''"`
	CustomerPhone   *string              `gorm:"column:customer_phone"`
	ShippingAddress *types.PostalAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Currency        string               `gorm:"column:currency;not null;default:'usd'"`
	SubtotalCents   int64                `gorm:"column:subtotal_cents;not null"`
	ShippingCents   int64                `gorm:"column:shipping_cents;not null"`
	TaxCents        int64                `gorm:"column:tax_cents;not null"`
	TotalCents      int64                `gorm:"column:total_cents;not null"`
	AmountPaidCents *int64               `gorm:"column:amount_paid_cents"`
	PrintfulOrderID *int64               `gorm:"column:printful_order_id"`
	FailureReason   *string              `gorm:"column:failure_reason"`
	PaidAt          *time.Time           `gorm:"column:paid_at"`
	SubmittedAt     *time.Time           `gorm:"column:submitted_at"`
	LineItems       []OrderLineItem      `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem snapshots one cart line at checkout time.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index:order_line_items_order_id_idx"`
	ProductID      string    `gorm:"column:product_id;not null"`
	VariantID      int64     `gorm:"column:variant_id;not null"`
	Name           string    `gorm:"column:name;not null"`
	Size           string    `gorm:"column:size;not null"`
	Color          string    `gorm:"column:color;not null"`
	Image          *string   `gorm:"column:image"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
