package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product mirrors one fulfillment-platform store product.
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalProductID string           `gorm:"column:external_product_id;not null;uniqueIndex:products_external_product_id_key"`
	Name              string           `gorm:"column:name;not null"`
	Category          string           `gorm:"column:category;not null"`
	Description       string           `gorm:"column:description;not null;default:''"`
	ThumbnailURL      *string          `gorm:"column:thumbnail_url"`
	BasePrice         decimal.Decimal  `gorm:"column:base_price;type:numeric(10,2);not null"`
	Sizes             []string         `gorm:"column:sizes;type:jsonb;serializer:json"`
	Colors            []string         `gorm:"column:colors;type:jsonb;serializer:json"`
	Variants          []ProductVariant `gorm:"foreignKey:ProductID"`
	SyncedAt          time.Time        `gorm:"column:synced_at;not null"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is one size/color combination of a synced product.
type ProductVariant struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID         uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index:product_variants_product_id_idx"`
	ExternalVariantID string          `gorm:"column:external_variant_id;not null;uniqueIndex:product_variants_external_variant_id_key"`
	Name              string          `gorm:"column:name;not null"`
	Size              *string         `gorm:"column:size"`
	Color             *string         `gorm:"column:color"`
	RetailPrice       decimal.Decimal `gorm:"column:retail_price;type:numeric(10,2);not null"`
	Currency          string          `gorm:"column:currency;not null;default:'USD'"`
	PreviewURL        *string         `gorm:"column:preview_url"`
	Synced            bool            `gorm:"column:synced;not null;default:false"`
	Ignored           bool            `gorm:"column:ignored;not null;default:false"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
