package cart

import (
	"github.com/shopspring/decimal"

	cartsvc "github.com/praytees/storefront/internal/cart"
	"github.com/praytees/storefront/pkg/money"
)

type lineResponse struct {
	cartsvc.LineItem
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	SessionID string          `json:"session_id"`
	Items     []lineResponse  `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

func newCartResponse(c *cartsvc.Cart) cartResponse {
	items := make([]lineResponse, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, lineResponse{
			LineItem: item,
			Subtotal: money.Round(item.Subtotal()),
		})
	}
	return cartResponse{
		SessionID: c.SessionID,
		Items:     items,
		ItemCount: c.ItemCount,
		Total:     c.Total,
	}
}
