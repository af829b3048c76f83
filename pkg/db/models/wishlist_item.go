package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem links a hosted-auth user to a liked catalog product.
type WishlistItem struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      string         `gorm:"column:user_id;not null;index:wishlist_items_user_id_idx;uniqueIndex:wishlist_items_user_product_key"`
	ProductID   string         `gorm:"column:product_id;not null;uniqueIndex:wishlist_items_user_product_key"`
	ProductData map[string]any `gorm:"column:product_data;type:jsonb;serializer:json"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}
